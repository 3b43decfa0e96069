// Package defaults provides embedded default assets (config and specification overlays).
package defaults

import "embed"

//go:embed default_config.json
var DefaultConfigJSON []byte

// Augmentations holds per-service overlay files named <service>.yaml. Their
// operations and shapes are merged over the loaded specification by name.
//
//go:embed augmentations
var Augmentations embed.FS
