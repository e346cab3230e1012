// Package lessondeck embeds the annotated default configuration.
//
// The root package exists solely to embed [config.default.toml] via
// [DefaultConfigTOML], which the CLI writes on first run.
package lessondeck

import _ "embed"

// DefaultConfigTOML holds the raw bytes of config.default.toml. It is
// generated by cmd/genconfig from config.ExampleConfig.
//
//go:embed config.default.toml
var DefaultConfigTOML []byte
