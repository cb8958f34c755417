// Package tcpostgres runs a disposable postgres server for store tests.
package tcpostgres

import (
	"context"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type (
	Option func(c *config)
	config struct {
		image    string
		name     string
		user     string
		password string
		database string
		startup  time.Duration
	}
)

func WithImage(image string) Option {
	return func(c *config) { c.image = image }
}

// WithName sets the container name. Containers with the same name are reused.
func WithName(name string) Option {
	return func(c *config) { c.name = name }
}

func WithCredentials(user, password, database string) Option {
	return func(c *config) {
		c.user = user
		c.password = password
		c.database = database
	}
}

func WithStartupTimeout(d time.Duration) Option {
	return func(c *config) { c.startup = d }
}

// Start launches (or reuses) the container and returns a connection url.
// The schema is created by the store itself.
func Start(ctx context.Context, opts ...Option) (string, error) {
	cfg := &config{
		image:    "postgres:17-alpine",
		name:     "simresults-indexer-test",
		user:     "postgres",
		password: "password",
		database: "postgres",
		startup:  30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	port, err := nat.NewPort("tcp", "5432")
	if err != nil {
		return "", err
	}
	req := testcontainers.ContainerRequest{
		Image:        cfg.image,
		Name:         cfg.name,
		ExposedPorts: []string{port.Port()},
		Cmd:          []string{"postgres", "-c", "fsync=off"},
		Env: map[string]string{
			"POSTGRES_USER":     cfg.user,
			"POSTGRES_PASSWORD": cfg.password,
			"POSTGRES_DB":       cfg.database,
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(cfg.startup),
	}
	container, err := testcontainers.GenericContainer(ctx,
		testcontainers.GenericContainerRequest{
			ContainerRequest: req,
			Started:          true,
			Reuse:            true,
		})
	if err != nil {
		return "", fmt.Errorf("starting postgres container: %w", err)
	}
	mapped, err := container.MappedPort(ctx, port)
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s",
		cfg.user, cfg.password, host, mapped.Port(), cfg.database), nil
}
