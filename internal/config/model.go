package config

import "context"

// Loader is the interface for a format-specific configuration loader.
type Loader interface {
	// Load reads configuration from the given paths and translates it into
	// the format-agnostic model.
	Load(ctx context.Context, paths ...string) (*Model, error)
}

// Default server settings.
const (
	DefaultPort        = 8080
	DefaultObjectsPath = "objects"
	DefaultNodeType    = "node"
)

// Model is the unified representation of the server configuration.
type Model struct {
	Server     Server
	Objects    []*Object    `validate:"dive"`
	Interfaces []*Interface `validate:"dive"`
	Screens    []*Screen    `validate:"dive"`
}

// Server holds the global settings handed to every driver.
type Server struct {
	Port        int `validate:"min=1,max=65535"`
	Developer   bool
	Debug       bool
	ObjectsPath string `validate:"required"`
}

// Object binds an object name to a fixed id. An empty ID lets the server
// generate one.
type Object struct {
	Name string `validate:"required"`
	ID   string
}

// Interface is a declarative hardware interface: the nodes it declares on one
// frame of an object.
type Interface struct {
	Name    string `validate:"required"`
	Object  string `validate:"required"`
	Frame   string `validate:"required"`
	Enabled bool
	Nodes   []*Node `validate:"dive"`
}

// Node is a node declared by an Interface.
type Node struct {
	Name string `validate:"required"`
	Type string `validate:"required"`

	// X and Y place a new node. Nil means a random position.
	X *float64
	Y *float64

	// Value is written once the node is declared.
	Value   *float64
	Unit    string
	UnitMin float64
	UnitMax float64 `validate:"gtefield=UnitMin"`

	PublicData map[string]any
}

// Screen is a companion screen attached to an object.
type Screen struct {
	Name         string  `validate:"required"`
	Object       string  `validate:"required"`
	Port         int     `validate:"min=1,max=65535"`
	TargetWidth  float64 `validate:"gte=0"`
	TargetHeight float64 `validate:"gte=0"`
}

// NewModel returns a model with default server settings.
func NewModel() *Model {
	return &Model{
		Server: Server{
			Port:        DefaultPort,
			ObjectsPath: DefaultObjectsPath,
		},
	}
}
