// Package builtin embeds the default feature schema via go:embed.
package builtin

import "embed"

//go:embed *.yaml
var builtinSchema embed.FS

// FS returns the embedded filesystem containing the default schema.
func FS() embed.FS {
	return builtinSchema
}
