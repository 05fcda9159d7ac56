// SPDX-License-Identifier: Apache-2.0

// Package mongotest provides an ephemeral MongoDB server for tests. Each
// test gets its own database with a generated, traceable name; the 63
// character ceiling enforced by the name generator is MongoDB's own database
// name limit.
package mongotest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xataio/testkit/pkg/dbname"
)

// The version of MongoDB against which the tests are run if the
// MONGODB_VERSION environment variable is not set.
const defaultMongoVersion = "7.0"

const (
	connectTimeout  = 30 * time.Second
	backoffInterval = 250 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

type config struct {
	serviceName string
	serviceHost string
	image       string
	logger      zerolog.Logger
}

// Option configures Run.
type Option func(*config)

// WithServiceName sets the service name embedded in generated database
// names. Defaults to the name of the test binary.
func WithServiceName(name string) Option {
	return func(c *config) { c.serviceName = name }
}

// WithServiceHost sets the host name embedded in generated database names.
// Defaults to the local host name with its domain stripped.
func WithServiceHost(host string) Option {
	return func(c *config) { c.serviceHost = host }
}

// WithImage sets the container image to run. Defaults to
// "mongo:"+MONGODB_VERSION, or mongo:7.0 if the environment variable is
// unset.
func WithImage(image string) Option {
	return func(c *config) { c.image = image }
}

// WithLogger sets the logger for container lifecycle events. Defaults to a
// no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Server is a MongoDB container started for a test.
type Server struct {
	// ConnStr is the connection string to the server.
	ConnStr string

	cfg config
}

// Run starts a MongoDB container and terminates it when the test finishes.
func Run(t *testing.T, opts ...Option) *Server {
	t.Helper()
	ctx := context.Background()

	mongoVersion := os.Getenv("MONGODB_VERSION")
	if mongoVersion == "" {
		mongoVersion = defaultMongoVersion
	}

	cfg := config{
		serviceName: filepath.Base(os.Args[0]),
		image:       "mongo:" + mongoVersion,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if cfg.serviceHost == "" {
		host, err := dbname.DetectServiceHost(dbname.DomainStrip)
		if err != nil {
			host = "localhost"
		}
		cfg.serviceHost = host
	}

	ctr, err := mongodb.Run(ctx, cfg.image)
	if err != nil {
		t.Fatalf("Failed to start mongodb container: %v", err)
	}

	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			cfg.logger.Error().Err(err).Msg("failed to terminate container")
		}
	})

	connStr, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("Failed to get connection string: %v", err)
	}

	cfg.logger.Info().Str("image", cfg.image).Msg("mongodb container ready")

	return &Server{ConnStr: connStr, cfg: cfg}
}

// Client connects to the server, retrying the initial ping with backoff
// until the server accepts connections or the connect timeout elapses. The
// client is disconnected when the test finishes.
func (s *Server) Client(t *testing.T) *mongo.Client {
	t.Helper()
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(s.ConnStr))
	if err != nil {
		t.Fatalf("Failed to connect to mongodb: %v", err)
	}

	t.Cleanup(func() {
		if err := client.Disconnect(ctx); err != nil {
			t.Errorf("Failed to disconnect mongodb client: %v", err)
		}
	})

	b := backoff.New(maxBackoff, backoffInterval)
	deadline := time.Now().Add(connectTimeout)
	for {
		err = client.Ping(ctx, nil)
		if err == nil {
			return client
		}
		if time.Now().After(deadline) {
			t.Fatalf("Mongodb server not reachable after %s: %v", connectTimeout, err)
		}
		time.Sleep(b.Duration())
	}
}

// Database creates a database with a generated name and drops it when the
// test finishes.
func (s *Server) Database(t *testing.T, client *mongo.Client) *mongo.Database {
	t.Helper()
	ctx := context.Background()

	name, err := dbname.Generate(s.cfg.serviceName, s.cfg.serviceHost)
	if err != nil {
		t.Fatal(err)
	}

	db := client.Database(name)

	t.Cleanup(func() {
		if err := db.Drop(ctx); err != nil {
			t.Errorf("Failed to drop database %s: %v", name, err)
		}
	})

	return db
}

// ListStale returns every database on the server whose name looks like a
// generated test database name and whose embedded timestamp is older than
// olderThan. Databases whose names lack the generator's markers are never
// reported.
func ListStale(ctx context.Context, client *mongo.Client, olderThan time.Duration) ([]string, error) {
	names, err := client.ListDatabaseNames(ctx, bson.D{})
	if err != nil {
		return nil, err
	}

	cutoff := time.Now().Add(-olderThan)

	var stale []string
	for _, name := range names {
		if !dbname.LooksLikeTestDatabaseName(name) {
			continue
		}

		createdAt, err := dbname.GenerationTime(name)
		if err != nil || createdAt.After(cutoff) {
			continue
		}

		stale = append(stale, name)
	}

	return stale, nil
}

// SweepStale drops the databases ListStale reports and returns the names of
// the dropped ones.
func SweepStale(ctx context.Context, client *mongo.Client, olderThan time.Duration) ([]string, error) {
	stale, err := ListStale(ctx, client, olderThan)
	if err != nil {
		return nil, err
	}

	var dropped []string
	for _, name := range stale {
		if err := client.Database(name).Drop(ctx); err != nil {
			return dropped, err
		}
		dropped = append(dropped, name)
	}

	return dropped, nil
}
