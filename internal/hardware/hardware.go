// Package hardware defines how hardware interfaces plug into the server.
//
// A hardware interface is compiled into the binary and handed the shared
// registry and screen bridge. It is configured once at startup and again
// after every configuration reload, and runs alongside the HTTP server until
// the server shuts down.
package hardware

import (
	"context"

	"github.com/vk/realityserver/internal/config"
	"github.com/vk/realityserver/internal/registry"
	"github.com/vk/realityserver/internal/screenbridge"
)

// Host is what the server shares with every hardware interface.
type Host struct {
	Registry *registry.Registry
	Bridge   *screenbridge.Bridge
}

// Module is a hardware interface compiled into the server.
type Module interface {
	// Name identifies the interface. It must be unique within a server.
	Name() string

	// Configure applies cfg. It is called at startup and after each reload,
	// always from the same goroutine.
	Configure(ctx context.Context, host Host, cfg *config.Model) error

	// Run serves until ctx is done.
	Run(ctx context.Context) error
}
