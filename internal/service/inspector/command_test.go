package inspector

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dfu-packager/internal/checksum"
	"github.com/oshokin/dfu-packager/internal/config"
	"github.com/oshokin/dfu-packager/internal/domain/dfu"
	"github.com/oshokin/dfu-packager/internal/service/packager"
)

// entry is a file stored in a hand-built test archive.
type entry struct {
	name string
	data []byte
}

// writeZip builds an archive with the given entries in order.
func writeZip(t *testing.T, entries ...entry) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pkg_dfu.zip")
	f, err := os.Create(path)
	require.NoError(t, err)

	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		require.NoError(t, err)

		_, err = fw.Write(e.data)
		require.NoError(t, err)
	}

	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	return path
}

// validEntries returns a consistent binary, init packet and manifest.
func validEntries(t *testing.T, bin []byte) []entry {
	t.Helper()

	manifest, err := dfu.NewManifest("fw.bin", "fw.dat").Encode()
	require.NoError(t, err)

	return []entry{
		{"fw.bin", bin},
		{"fw.dat", dfu.NewInitPacket(checksum.Bytes(bin)).Bytes()},
		{dfu.ManifestFilename, manifest},
	}
}

// TestInspect_PackagerOutput accepts what the packager writes.
func TestInspect_PackagerOutput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "app.bin")
	require.NoError(t, os.WriteFile(input, []byte("firmware image"), 0o600))

	cfg := config.Default()
	cfg.BuildDir = filepath.Join(dir, "build")

	pkg, err := packager.Run(context.Background(), &packager.Options{InputPath: input, Config: cfg})
	require.NoError(t, err)

	report, err := Inspect(context.Background(), pkg.ArchivePath)
	require.NoError(t, err)
	require.Equal(t, pkg.CRC, report.InitPacket.CRC)
	require.Equal(t, pkg.CRC, report.ActualCRC)
	require.Equal(t, uint64(len("firmware image")), report.BinSize)
	require.Equal(t, "app.bin", report.Manifest.Manifest.Application.BinFile)
}

// TestInspect_ChecksumMismatch reports an altered binary.
func TestInspect_ChecksumMismatch(t *testing.T) {
	t.Parallel()

	entries := validEntries(t, []byte{1, 2, 3})
	entries[0].data = []byte{1, 2, 4}

	report, err := Inspect(context.Background(), writeZip(t, entries...))
	require.ErrorIs(t, err, ErrChecksumMismatch)
	require.NotNil(t, report)
	require.NotEqual(t, report.InitPacket.CRC, report.ActualCRC)
}

// TestInspect_InvalidLayouts rejects archives that are not DFU packages.
func TestInspect_InvalidLayouts(t *testing.T) {
	t.Parallel()

	valid := validEntries(t, []byte{9})

	cases := map[string][]entry{
		"too few entries":   valid[:2],
		"extra entry":       append(append([]entry(nil), valid...), entry{"stale.dat", nil}),
		"nested entry":      {valid[0], valid[1], {"dfu/manifest.json", valid[2].data}},
		"no manifest":       {valid[0], valid[1], {"readme.txt", nil}},
		"missing binary":    {{"other.bin", valid[0].data}, valid[1], valid[2]},
		"duplicate entries": {valid[0], valid[0], valid[2]},
	}

	for name, entries := range cases {
		_, err := Inspect(context.Background(), writeZip(t, entries...))
		require.ErrorIs(t, err, ErrInvalidArchive, name)
	}
}

// TestInspect_BadInitPacket surfaces record decoding errors.
func TestInspect_BadInitPacket(t *testing.T) {
	t.Parallel()

	entries := validEntries(t, []byte{9})
	entries[1].data = []byte{0x33, 0x44}

	_, err := Inspect(context.Background(), writeZip(t, entries...))
	require.ErrorIs(t, err, dfu.ErrInvalidRecord)
}

// TestInspect_NotAnArchive fails on missing or non-zip files.
func TestInspect_NotAnArchive(t *testing.T) {
	t.Parallel()

	_, err := Inspect(context.Background(), filepath.Join(t.TempDir(), "missing.zip"))
	require.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "plain.zip")
	require.NoError(t, os.WriteFile(path, []byte("not a zip"), 0o600))

	_, err = Inspect(context.Background(), path)
	require.Error(t, err)
}
