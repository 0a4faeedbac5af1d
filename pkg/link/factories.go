package link

import (
	"context"
	"time"

	"github.com/samvad-hq/lnk/pkg/dbs"
	"github.com/samvad-hq/lnk/pkg/httpclient"
	"github.com/samvad-hq/lnk/pkg/queues"
	"github.com/samvad-hq/lnk/pkg/wrappers"
)

// Canonical wrapper tags.
const (
	TagAPI      = "api"
	TagMySQL    = "mysql"
	TagPostgres = "postgres"
	TagSQLite   = "sqlite"
	TagMongo    = "mongodb"
	TagRedis    = "redis"
	TagBolt     = "bbolt"
	TagSQS      = queues.TypeSQS
	TagSNS      = queues.TypeSNS
	TagPubSub   = queues.TypePubSub

	defaultHTTPTimeout = 15 * time.Second
)

// APIOptions configures an HTTP API entry. BaseURL is kept verbatim and prefixed to request paths.
type APIOptions struct {
	BaseURL        string            `mapstructure:"base_url" validate:"required"`
	User           string            `mapstructure:"user"`
	Password       string            `mapstructure:"password"`
	Headers        map[string]string `mapstructure:"headers"`
	TimeoutSeconds int               `mapstructure:"timeout_seconds" validate:"gte=0"`
}

// DefaultRegistry wires every built-in wrapper with the default HTTP timeout.
func DefaultRegistry() Registry {
	return NewDefaultRegistry(defaultHTTPTimeout)
}

// NewDefaultRegistry wires every built-in wrapper. httpTimeout applies to API
// entries that do not set timeout_seconds.
func NewDefaultRegistry(httpTimeout time.Duration) Registry {
	if httpTimeout <= 0 {
		httpTimeout = defaultHTTPTimeout
	}

	reg := NewRegistry()
	reg.Register(TagAPI, NewFactory(SectionAPIs, func(_ context.Context, _ string, o APIOptions, log Logger) (Wrapper, error) {
		timeout := httpTimeout
		if o.TimeoutSeconds > 0 {
			timeout = time.Duration(o.TimeoutSeconds) * time.Second
		}
		return wrappers.NewRequestWrapper(o.BaseURL, o.User, o.Password,
			wrappers.WithClient(httpclient.NewRestyClient(timeout)),
			wrappers.WithHeaders(o.Headers),
			wrappers.WithLogger(log),
		), nil
	}), "apirequestwrapper", "requestwrapper")

	reg.Register(TagMySQL, NewFactory(SectionDBs, func(_ context.Context, name string, o dbs.MySQLOptions, log Logger) (Wrapper, error) {
		return wrap(dbs.NewMySQL(name, o, log))
	}), "mysqldb")
	reg.Register(TagPostgres, NewFactory(SectionDBs, func(_ context.Context, name string, o dbs.PostgresOptions, log Logger) (Wrapper, error) {
		return wrap(dbs.NewPostgres(name, o, log))
	}), "postgresdb", "postgresql")
	reg.Register(TagSQLite, NewFactory(SectionDBs, func(_ context.Context, name string, o dbs.SQLiteOptions, log Logger) (Wrapper, error) {
		return wrap(dbs.NewSQLite(name, o, log))
	}), "sqlitedb")
	reg.Register(TagMongo, NewFactory(SectionDBs, func(ctx context.Context, name string, o dbs.MongoOptions, log Logger) (Wrapper, error) {
		return wrap(dbs.NewMongo(ctx, name, o, log))
	}), "mongo", "mongodb")
	reg.Register(TagRedis, NewFactory(SectionDBs, func(_ context.Context, name string, o dbs.RedisOptions, _ Logger) (Wrapper, error) {
		return dbs.NewRedis(name, o), nil
	}), "redisdb")
	reg.Register(TagBolt, NewFactory(SectionDBs, func(_ context.Context, name string, o dbs.BoltOptions, _ Logger) (Wrapper, error) {
		return wrap(dbs.NewBolt(name, o))
	}), "boltdb", "bolt")

	reg.Register(TagSQS, NewFactory(SectionQueues, func(ctx context.Context, name string, o queues.SQSOptions, log Logger) (Wrapper, error) {
		return wrap(queues.NewSQS(ctx, name, o, log))
	}), "sqsqueue")
	reg.Register(TagSNS, NewFactory(SectionQueues, func(ctx context.Context, name string, o queues.SNSOptions, log Logger) (Wrapper, error) {
		return wrap(queues.NewSNS(ctx, name, o, log))
	}), "snstopic")
	reg.Register(TagPubSub, NewFactory(SectionQueues, func(ctx context.Context, name string, o queues.PubSubOptions, log Logger) (Wrapper, error) {
		return wrap(queues.NewPubSub(ctx, name, o, log))
	}), "gcppubsub")

	return reg
}

// wrap keeps a typed nil out of the Wrapper interface.
func wrap[T any](w T, err error) (Wrapper, error) {
	if err != nil {
		return nil, err
	}
	return w, nil
}
