// SPDX-License-Identifier: Apache-2.0

// Package zktest provides an ephemeral ZooKeeper server for tests. Connect
// blocks until the client session is established, so tests never race the
// server's startup.
package zktest

import (
	"context"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"github.com/cloudflare/backoff"
	"github.com/go-zookeeper/zk"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// The version of ZooKeeper against which the tests are run if the
// ZOOKEEPER_VERSION environment variable is not set.
const defaultZookeeperVersion = "3.9"

const (
	clientPort      = "2181/tcp"
	sessionTimeout  = 10 * time.Second
	connectTimeout  = 30 * time.Second
	backoffInterval = 250 * time.Millisecond
	maxBackoff      = 2 * time.Second
)

type config struct {
	image  string
	logger zerolog.Logger
}

// Option configures Run.
type Option func(*config)

// WithImage sets the container image to run. Defaults to
// "zookeeper:"+ZOOKEEPER_VERSION, or zookeeper:3.9 if the environment
// variable is unset.
func WithImage(image string) Option {
	return func(c *config) { c.image = image }
}

// WithLogger sets the logger for container lifecycle events. Defaults to a
// no-op logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Server is a ZooKeeper container started for a test.
type Server struct {
	// Addr is the host:port of the client port.
	Addr string
}

// Run starts a single-node ZooKeeper container and terminates it when the
// test finishes.
func Run(t *testing.T, opts ...Option) *Server {
	t.Helper()
	ctx := context.Background()

	zkVersion := os.Getenv("ZOOKEEPER_VERSION")
	if zkVersion == "" {
		zkVersion = defaultZookeeperVersion
	}

	cfg := config{
		image:  "zookeeper:" + zkVersion,
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        cfg.image,
			ExposedPorts: []string{clientPort},
			WaitingFor:   wait.ForListeningPort(clientPort).WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start zookeeper container: %v", err)
	}

	t.Cleanup(func() {
		if err := ctr.Terminate(ctx); err != nil {
			cfg.logger.Error().Err(err).Msg("failed to terminate container")
		}
	})

	host, err := ctr.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := ctr.MappedPort(ctx, clientPort)
	if err != nil {
		t.Fatalf("Failed to get mapped client port: %v", err)
	}

	addr := net.JoinHostPort(host, port.Port())
	cfg.logger.Info().Str("image", cfg.image).Str("addr", addr).Msg("zookeeper container ready")

	return &Server{Addr: addr}
}

// Connect opens a session to the server and blocks until the session is
// established or the connect timeout elapses. The connection is closed when
// the test finishes.
func (s *Server) Connect(t *testing.T) *zk.Conn {
	t.Helper()

	conn, _, err := zk.Connect([]string{s.Addr}, sessionTimeout, zk.WithLogInfo(false))
	if err != nil {
		t.Fatalf("Failed to connect to zookeeper: %v", err)
	}

	t.Cleanup(conn.Close)

	b := backoff.New(maxBackoff, backoffInterval)
	deadline := time.Now().Add(connectTimeout)
	for conn.State() != zk.StateHasSession {
		if time.Now().After(deadline) {
			t.Fatalf("Zookeeper session not established after %s, last state %s", connectTimeout, conn.State())
		}
		time.Sleep(b.Duration())
	}

	return conn
}

// Chroot creates a unique root znode for the test and removes it, and
// everything under it, when the test finishes. Parallel tests sharing a
// server therefore never see each other's nodes.
func Chroot(t *testing.T, conn *zk.Conn) string {
	t.Helper()

	path := fmt.Sprintf("/testkit-%s", uuid.NewString())

	if _, err := conn.Create(path, nil, 0, zk.WorldACL(zk.PermAll)); err != nil {
		t.Fatalf("Failed to create chroot %s: %v", path, err)
	}

	t.Cleanup(func() {
		if err := deleteRecursive(conn, path); err != nil {
			t.Errorf("Failed to delete chroot %s: %v", path, err)
		}
	})

	return path
}

func deleteRecursive(conn *zk.Conn, path string) error {
	children, _, err := conn.Children(path)
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := deleteRecursive(conn, path+"/"+child); err != nil {
			return err
		}
	}

	return conn.Delete(path, -1)
}
