// Package config defines the format-agnostic project manifest model, along
// with the Loader and Decoder interfaces that concrete formats implement.
//
// Driver bodies stay undecoded in the model. The registry decodes each one
// into the input struct of the driver registered under its type.
package config
