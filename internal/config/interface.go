package config

import (
	"context"

	"github.com/hashicorp/hcl/v2"
)

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads the manifest from the given paths (files or directories)
	// and returns the model together with a Decoder for its driver bodies.
	Load(ctx context.Context, paths ...string) (*Model, Decoder, error)
}

// Decoder binds a raw driver body to a Go struct.
type Decoder interface {
	DecodeBody(ctx context.Context, body hcl.Body, target any) error
}
