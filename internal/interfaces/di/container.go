package di

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/parceldesk/pathao-go/internal/client"
	"github.com/parceldesk/pathao-go/internal/infrastructure/config"
	"github.com/parceldesk/pathao-go/internal/infrastructure/logging"
)

// Container holds the effective configuration and hands out the shared
// API client. The client is built on first use so commands that only
// touch local state never require credentials.
type Container struct {
	Config *config.Config
	Logger zerolog.Logger

	mu     sync.Mutex
	client *client.Client
}

// NewContainer creates an empty container; Config and Logger are filled
// in by the root command once flags are parsed
func NewContainer() *Container {
	return &Container{
		Config: config.Default(),
		Logger: logging.New(false),
	}
}

// Client returns the shared API client, building it on first call
func (c *Container) Client() (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		built, err := client.New(c.Config, client.WithLogger(c.Logger))
		if err != nil {
			return nil, err
		}
		c.client = built
	}
	return c.client, nil
}

// Close releases the client if one was built
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}
