// Package config embeds the default service configuration.
package config

import _ "embed"

// Default is the built-in conf.yaml that user configuration is merged over.
//
//go:embed conf.default.yaml
var Default []byte
