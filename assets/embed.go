// assets/embed.go
//
// Embedded static data shipped with the binary:
//   - catalog.toml: the default compound word catalog.

package assets

import (
	_ "embed"
)

//go:embed catalog.toml
var catalog []byte

// Catalog returns the raw embedded TOML catalog.
func Catalog() []byte {
	return catalog
}
