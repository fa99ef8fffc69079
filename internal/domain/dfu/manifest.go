package dfu

import (
	"errors"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
)

// ManifestFilename is the fixed name of the manifest inside the package.
const ManifestFilename = "manifest.json"

// manifestIndent matches the four-space layout expected by existing DFU tooling.
const manifestIndent = "    "

// ErrInvalidManifest is returned for manifests missing a file reference.
var ErrInvalidManifest = errors.New("invalid manifest")

// Manifest describes which files in the package play which role.
type Manifest struct {
	Manifest Contents `json:"manifest"`
}

// Contents is the body of the manifest document.
type Contents struct {
	Application Application `json:"application"`
}

// Application names the firmware binary and its init packet.
type Application struct {
	// BinFile is the base name of the firmware binary.
	BinFile string `json:"bin_file"`
	// DatFile is the base name of the init packet.
	DatFile string `json:"dat_file"`
}

// NewManifest builds a manifest for the given file names.
func NewManifest(binFile, datFile string) *Manifest {
	return &Manifest{
		Manifest: Contents{
			Application: Application{
				BinFile: binFile,
				DatFile: datFile,
			},
		},
	}
}

// Validate checks that both names are set and carry no directory part.
func (m *Manifest) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: empty document", ErrInvalidManifest)
	}

	app := m.Manifest.Application
	fields := [...]struct{ key, name string }{
		{"bin_file", app.BinFile},
		{"dat_file", app.DatFile},
	}

	for _, field := range fields {
		key, name := field.key, field.name
		if name == "" {
			return fmt.Errorf("%w: %s is empty", ErrInvalidManifest, key)
		}

		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%w: %s %q has a directory part", ErrInvalidManifest, key, name)
		}
	}

	return nil
}

// Encode renders the manifest as indented JSON.
func (m *Manifest) Encode() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(m, "", manifestIndent)
	if err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return data, nil
}

// DecodeManifest parses and validates a manifest document.
func DecodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}
