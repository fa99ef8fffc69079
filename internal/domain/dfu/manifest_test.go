package dfu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestManifest_Encode checks the exact document layout.
func TestManifest_Encode(t *testing.T) {
	t.Parallel()

	data, err := NewManifest("app.bin", "app.dat").Encode()
	require.NoError(t, err)

	want := `{
    "manifest": {
        "application": {
            "bin_file": "app.bin",
            "dat_file": "app.dat"
        }
    }
}`
	require.Equal(t, want, string(data))

	// Same input, same bytes.
	again, err := NewManifest("app.bin", "app.dat").Encode()
	require.NoError(t, err)
	require.Equal(t, data, again)
}

// TestDecodeManifest reads back an encoded document and rejects broken ones.
func TestDecodeManifest(t *testing.T) {
	t.Parallel()

	data, err := NewManifest("fw.hex.bin", "fw.hex.dat").Encode()
	require.NoError(t, err)

	m, err := DecodeManifest(data)
	require.NoError(t, err)
	require.Equal(t, "fw.hex.bin", m.Manifest.Application.BinFile)
	require.Equal(t, "fw.hex.dat", m.Manifest.Application.DatFile)

	_, err = DecodeManifest([]byte(`{"manifest":{"application":{"bin_file":"a.bin"}}}`))
	require.ErrorIs(t, err, ErrInvalidManifest)

	_, err = DecodeManifest([]byte(`not json`))
	require.Error(t, err)
}

// TestManifest_Validate rejects directory components.
func TestManifest_Validate(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, NewManifest("dir/app.bin", "app.dat").Validate(), ErrInvalidManifest)
	require.ErrorIs(t, NewManifest("app.bin", `dir\app.dat`).Validate(), ErrInvalidManifest)
	require.ErrorIs(t, (*Manifest)(nil).Validate(), ErrInvalidManifest)

	_, err := NewManifest("", "app.dat").Encode()
	require.ErrorIs(t, err, ErrInvalidManifest)
}

// TestNamesFor derives .dat and archive names from the firmware stem.
func TestNamesFor(t *testing.T) {
	t.Parallel()

	cases := map[string]Names{
		"build/zephyr/app.bin": {Bin: "app.bin", Dat: "app.dat", Archive: "app_dfu.zip"},
		"fw.v2.bin":            {Bin: "fw.v2.bin", Dat: "fw.v2.dat", Archive: "fw.v2_dfu.zip"},
		"firmware":             {Bin: "firmware", Dat: "firmware.dat", Archive: "firmware_dfu.zip"},
		"out/.bin":             {Bin: ".bin", Dat: ".bin.dat", Archive: ".bin_dfu.zip"},
		".fw.bin":              {Bin: ".fw.bin", Dat: ".fw.dat", Archive: ".fw_dfu.zip"},
		"..bin":                {Bin: "..bin", Dat: "..bin.dat", Archive: "..bin_dfu.zip"},
	}
	for path, want := range cases {
		require.Equal(t, want, NamesFor(path), path)
	}
}
