// Package data holds the built-in site configuration and sample content.
package data

import "embed"

var (
	//go:embed brochure.yaml seed.yaml
	FS embed.FS
)

const SeedFile = "seed.yaml"
