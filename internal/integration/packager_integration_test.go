package integration

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/dfu-packager/internal/config"
	"github.com/oshokin/dfu-packager/internal/service/inspector"
	"github.com/oshokin/dfu-packager/internal/service/packager"
)

// TestPackager_DefaultLayout packages two firmware images in a row from the
// working directory and checks that only the second one remains staged.
func TestPackager_DefaultLayout(t *testing.T) {
	// Setup test directory and change working directory.
	t.Chdir(t.TempDir())

	require.NoError(t, os.MkdirAll("firmware", 0o755))
	require.NoError(t, os.WriteFile(filepath.Join("firmware", "bootloader.bin"), []byte("bootloader"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join("firmware", "app.bin"), []byte{0x00}, 0o600))

	// No settings file: defaults apply.
	cfg, err := config.Load("")
	require.NoError(t, err)

	ctx := context.Background()

	first, err := packager.Run(ctx, &packager.Options{InputPath: filepath.Join("firmware", "bootloader.bin"), Config: cfg})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("build", "bootloader_dfu.zip"), first.ArchivePath)

	second, err := packager.Run(ctx, &packager.Options{InputPath: filepath.Join("firmware", "app.bin"), Config: cfg})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("build", "app_dfu.zip"), second.ArchivePath)
	require.Equal(t, uint32(0xD202EF8D), second.CRC)

	// Staging holds the second package only.
	for _, name := range []string{"bootloader.bin", "bootloader.dat"} {
		_, err = os.Stat(filepath.Join("build", "dfu", name))
		require.ErrorIs(t, err, os.ErrNotExist, name)
	}

	for _, name := range []string{"app.bin", "app.dat", "manifest.json"} {
		_, err = os.Stat(filepath.Join("build", "dfu", name))
		require.NoError(t, err, name)
	}

	// The archive has exactly three flat entries.
	r, err := zip.OpenReader(second.ArchivePath)
	require.NoError(t, err)

	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}

	require.NoError(t, r.Close())
	require.Equal(t, []string{"app.bin", "app.dat", "manifest.json"}, names)

	// Both archives verify.
	for _, pkg := range []*packager.Package{first, second} {
		report, err := inspector.Inspect(ctx, pkg.ArchivePath)
		require.NoError(t, err)
		require.Equal(t, pkg.CRC, report.ActualCRC)
	}
}

// TestPackager_SettingsFile honours build_dir and work_dir from YAML.
func TestPackager_SettingsFile(t *testing.T) {
	t.Chdir(t.TempDir())

	settings := "build_dir: out\nwork_dir: staging\nchunk_size: 1\nlog_level: debug\n"
	require.NoError(t, os.WriteFile(config.DefaultConfigFilename, []byte(settings), 0o600))
	require.NoError(t, os.WriteFile("fw.bin", []byte("payload"), 0o600))

	cfg, err := config.Load("")
	require.NoError(t, err)

	pkg, err := packager.Run(context.Background(), &packager.Options{InputPath: "fw.bin", Config: cfg})
	require.NoError(t, err)
	require.Equal(t, filepath.Join("out", "fw_dfu.zip"), pkg.ArchivePath)
	require.Equal(t, filepath.Join("out", "staging", "fw.dat"), pkg.DatPath)
}
