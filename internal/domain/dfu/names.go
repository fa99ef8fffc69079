package dfu

import (
	"path/filepath"
	"strings"
)

// ArchiveSuffix is appended to the firmware stem to name the output archive.
const ArchiveSuffix = "_dfu.zip"

// Names holds the file names that make up one package.
type Names struct {
	// Bin is the base name of the firmware binary, e.g. "app.bin".
	Bin string
	// Dat is the init packet name, e.g. "app.dat".
	Dat string
	// Archive is the output archive name, e.g. "app_dfu.zip".
	Archive string
}

// NamesFor derives package file names from the firmware path.
// The stem is the base name without its last extension. Leading dots do not
// start an extension, so ".bin" keeps ".bin" as its stem.
func NamesFor(binPath string) Names {
	base := filepath.Base(binPath)
	stem := strings.TrimSuffix(base, filepath.Ext(strings.TrimLeft(base, ".")))

	return Names{
		Bin:     base,
		Dat:     stem + DatExtension,
		Archive: stem + ArchiveSuffix,
	}
}
