// SPDX-License-Identifier: Apache-2.0

// Package pgtest provides an ephemeral Postgres server for tests. A single
// container is started per test binary; each test then gets its own scratch
// database with a generated, traceable name.
package pgtest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xataio/testkit/internal/connstr"
	"github.com/xataio/testkit/pkg/dbname"
)

// The version of postgres against which the tests are run if the
// POSTGRES_VERSION environment variable is not set.
const defaultPostgresVersion = "17"

type config struct {
	serviceName string
	serviceHost string
	image       string
	logger      zerolog.Logger
}

// Option configures SharedTestMain.
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
// "postgres:"+POSTGRES_VERSION, or postgres:17 if the environment variable
// is unset.
func WithImage(image string) Option {
	return func(c *config) { c.image = image }
}

// WithLogger sets the logger for container lifecycle events. Defaults to a
// no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// tConnStr holds the connection string to the test container created in
// SharedTestMain.
var (
	tConnStr string
	tConfig  config
)

func newConfig(opts ...Option) config {
	pgVersion := os.Getenv("POSTGRES_VERSION")
	if pgVersion == "" {
		pgVersion = defaultPostgresVersion
	}

	c := config{
		serviceName: filepath.Base(os.Args[0]),
		image:       "postgres:" + pgVersion,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&c)
	}

	if c.serviceHost == "" {
		host, err := dbname.DetectServiceHost(dbname.DomainStrip)
		if err != nil {
			host = "localhost"
		}
		c.serviceHost = host
	}

	return c
}

// SharedTestMain starts a postgres container to be used by all tests in a
// package. Each test then connects to the container and creates a new
// database. Call it from TestMain:
//
//	func TestMain(m *testing.M) {
//		pgtest.SharedTestMain(m, pgtest.WithServiceName("order-service"))
//	}
func SharedTestMain(m *testing.M, opts ...Option) {
	ctx := context.Background()

	tConfig = newConfig(opts...)

	waitForLogs := wait.
		ForLog("database system is ready to accept connections").
		WithOccurrence(2).
		WithStartupTimeout(30 * time.Second)

	ctr, err := postgres.Run(ctx, tConfig.image,
		testcontainers.WithWaitStrategy(waitForLogs),
	)
	if err != nil {
		tConfig.logger.Error().Err(err).Str("image", tConfig.image).Msg("failed to start postgres container")
		os.Exit(1)
	}

	tConnStr, err = ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		tConfig.logger.Error().Err(err).Msg("failed to get connection string")
		os.Exit(1)
	}

	tConfig.logger.Info().Str("image", tConfig.image).Msg("postgres container ready")

	exitCode := m.Run()

	if err := ctr.Terminate(ctx); err != nil {
		tConfig.logger.Error().Err(err).Msg("failed to terminate container")
	}

	os.Exit(exitCode)
}

// DB is a scratch database created inside the shared test container.
type DB struct {
	*sql.DB

	// Name is the generated database name.
	Name string

	// ConnStr is the connection string to the scratch database.
	ConnStr string
}

// New creates a new database in the test container and connects to it. The
// database name is generated from the configured service name and host; the
// connection is closed when the test finishes.
func New(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	if tConnStr == "" {
		t.Fatal("pgtest: no shared container; call pgtest.SharedTestMain from TestMain")
	}

	admin, err := sql.Open("postgres", tConnStr)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := admin.Close(); err != nil {
			t.Errorf("Failed to close database connection: %v", err)
		}
	})

	name, err := dbname.Generate(tConfig.serviceName, tConfig.serviceHost)
	if err != nil {
		t.Fatal(err)
	}

	_, err = admin.ExecContext(ctx, fmt.Sprintf("CREATE DATABASE %s", pq.QuoteIdentifier(name)))
	if err != nil {
		t.Fatal(err)
	}

	cs, err := connstr.WithDatabase(tConnStr, name)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("postgres", cs)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database connection: %v", err)
		}
	})

	return &DB{DB: db, Name: name, ConnStr: cs}
}

// WithConnection creates a scratch database and passes a connection to it,
// along with its connection string, to fn.
func WithConnection(t *testing.T, fn func(db *sql.DB, connStr string)) {
	t.Helper()

	db := New(t)

	fn(db.DB, db.ConnStr)
}

// WithConnectionInSchema creates a scratch database with the given schema
// and passes a connection whose search_path is set to that schema to fn.
func WithConnectionInSchema(t *testing.T, schema string, fn func(db *sql.DB, connStr string)) {
	t.Helper()
	ctx := context.Background()

	scratch := New(t)

	_, err := scratch.ExecContext(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", pq.QuoteIdentifier(schema)))
	if err != nil {
		t.Fatal(err)
	}

	cs, err := connstr.AppendSearchPathOption(scratch.ConnStr, schema)
	if err != nil {
		t.Fatal(err)
	}

	db, err := sql.Open("postgres", cs)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database connection: %v", err)
		}
	})

	fn(db, cs)
}
