package dbs

import (
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"
)

const defaultMySQLPort = 3306

// MySQLOptions configures a MySQL wrapper.
type MySQLOptions struct {
	Host           string            `mapstructure:"host" validate:"required"`
	Port           int               `mapstructure:"port"`
	User           string            `mapstructure:"user" validate:"required"`
	Password       string            `mapstructure:"password"`
	Database       string            `mapstructure:"database" validate:"required"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds"`
	Params         map[string]string `mapstructure:"params"`
}

// DSN renders the go-sql-driver connection string.
func (o MySQLOptions) DSN() string {
	port := o.Port
	if port <= 0 {
		port = defaultMySQLPort
	}

	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.DBName = o.Database
	cfg.ParseTime = true
	if o.TimeoutSeconds > 0 {
		cfg.Timeout = time.Duration(o.TimeoutSeconds) * time.Second
	}
	if len(o.Params) > 0 {
		cfg.Params = make(map[string]string, len(o.Params))
		for k, v := range o.Params {
			cfg.Params[k] = v
		}
	}
	return cfg.FormatDSN()
}

// NewMySQL opens a MySQL wrapper. The connection is established on first use.
func NewMySQL(name string, opts MySQLOptions, log Logger) (*SQLDB, error) {
	return OpenSQL(name, "mysql", opts.DSN(), log)
}
