// Package locales provides the embedded translation files (en, pt-BR) used to
// localize human-readable API messages.
package locales

import "embed"

// Content holds the locale YAML files.
//
//go:embed en.yaml pt-BR.yaml
var Content embed.FS
