package dbs

import (
	"net"
	"net/url"
	"strconv"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
)

const defaultPostgresPort = 5432

// PostgresOptions configures a PostgreSQL wrapper.
type PostgresOptions struct {
	Host     string            `mapstructure:"host" validate:"required"`
	Port     int               `mapstructure:"port"`
	User     string            `mapstructure:"user" validate:"required"`
	Password string            `mapstructure:"password"`
	Database string            `mapstructure:"database" validate:"required"`
	SSLMode  string            `mapstructure:"sslmode"`
	Params   map[string]string `mapstructure:"params"`
}

// DSN renders a postgres:// URL accepted by pgx.
func (o PostgresOptions) DSN() string {
	port := o.Port
	if port <= 0 {
		port = defaultPostgresPort
	}

	q := url.Values{}
	for k, v := range o.Params {
		q.Set(k, v)
	}
	if o.SSLMode != "" {
		q.Set("sslmode", o.SSLMode)
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(o.Host, strconv.Itoa(port)),
		Path:     "/" + o.Database,
		RawQuery: q.Encode(),
	}
	if o.Password != "" {
		u.User = url.UserPassword(o.User, o.Password)
	} else {
		u.User = url.User(o.User)
	}
	return u.String()
}

// NewPostgres opens a PostgreSQL wrapper through pgx's database/sql driver.
func NewPostgres(name string, opts PostgresOptions, log Logger) (*SQLDB, error) {
	return OpenSQL(name, "pgx", opts.DSN(), log)
}
