package resources

import (
	"embed"
)

// Fs bundles the files of this directory into the binary; dict.Embedded
// reads base_dictionary.xml from it.

//go:embed *
var Fs embed.FS
