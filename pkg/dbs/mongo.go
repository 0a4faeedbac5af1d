package dbs

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/samvad-hq/lnk/pkg/logging"
)

const defaultMongoPort = 27017

// MongoOptions configures a MongoDB wrapper. URI wins over the discrete fields when set.
type MongoOptions struct {
	URI            string `mapstructure:"uri" validate:"required_without=Host"`
	Host           string `mapstructure:"host" validate:"required_without=URI"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Database       string `mapstructure:"database" validate:"required"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// ConnectionURI renders the mongodb:// URI for the options.
func (o MongoOptions) ConnectionURI() string {
	if o.URI != "" {
		return o.URI
	}
	port := o.Port
	if port <= 0 {
		port = defaultMongoPort
	}
	u := url.URL{
		Scheme: "mongodb",
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(port)),
		Path:   "/" + o.Database,
	}
	if o.User != "" {
		u.User = url.UserPassword(o.User, o.Password)
	}
	return u.String()
}

// MongoDB wraps a mongo client bound to one database.
type MongoDB struct {
	name     string
	client   *mongo.Client
	database *mongo.Database
	log      Logger
}

// NewMongo builds a MongoDB wrapper. mongo.Connect does not block on server discovery.
func NewMongo(ctx context.Context, name string, opts MongoOptions, log Logger) (*MongoDB, error) {
	clientOpts := options.Client().ApplyURI(opts.ConnectionURI())
	if opts.TimeoutSeconds > 0 {
		clientOpts.SetTimeout(time.Duration(opts.TimeoutSeconds) * time.Second)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongodb %q: %w", name, err)
	}
	return &MongoDB{
		name:     name,
		client:   client,
		database: client.Database(opts.Database),
		log:      logging.Ensure(log),
	}, nil
}

// Find returns every document in collection matching filter (nil matches all).
func (m *MongoDB) Find(ctx context.Context, collection string, filter any) ([]Row, error) {
	if filter == nil {
		filter = bson.D{}
	}
	cur, err := m.database.Collection(collection).Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%s find %s: %w", m.name, collection, err)
	}
	defer cur.Close(ctx)

	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%s decode %s: %w", m.name, collection, err)
	}
	out := make([]Row, 0, len(docs))
	for _, d := range docs {
		out = append(out, Row(d))
	}
	m.log.DebugObj("mongo find completed", "mongo_find", map[string]any{
		"db":         m.name,
		"collection": collection,
		"documents":  len(out),
	})
	return out, nil
}

// Insert stores doc in collection and returns its id.
func (m *MongoDB) Insert(ctx context.Context, collection string, doc any) (any, error) {
	if doc == nil {
		return nil, errors.New("document must not be nil")
	}
	res, err := m.database.Collection(collection).InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("%s insert %s: %w", m.name, collection, err)
	}
	return res.InsertedID, nil
}

// Ping checks the primary is reachable.
func (m *MongoDB) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%s ping: %w", m.name, err)
	}
	return nil
}

// Close disconnects the client.
func (m *MongoDB) Close() error {
	if m == nil || m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
