package inspector

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/oshokin/dfu-packager/internal/checksum"
	"github.com/oshokin/dfu-packager/internal/domain/dfu"
	"github.com/oshokin/dfu-packager/internal/logger"
)

// expectedEntries is the number of files in a DFU archive: binary, init packet, manifest.
const expectedEntries = 3

var (
	// ErrInvalidArchive is returned when the archive layout does not match a DFU package.
	ErrInvalidArchive = errors.New("invalid DFU archive")
	// ErrChecksumMismatch is returned when the init packet CRC differs from the binary.
	ErrChecksumMismatch = errors.New("init packet checksum does not match the binary")
)

// Report summarizes a verified archive.
type Report struct {
	// Archive is the inspected file.
	Archive string
	// Manifest is the decoded manifest.json.
	Manifest *dfu.Manifest
	// InitPacket is the decoded .dat record.
	InitPacket dfu.InitPacket
	// BinSize is the uncompressed size of the firmware entry.
	BinSize uint64
	// ActualCRC is the CRC-32 recomputed from the firmware entry.
	ActualCRC uint32
}

// Inspect opens a DFU archive and checks that its init packet describes its binary.
// The report is returned alongside ErrChecksumMismatch so callers can show both values.
func Inspect(ctx context.Context, path string) (*Report, error) {
	ctx = logger.WithName(ctx, "dfu-inspector")

	archive, err := zip.OpenReader(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}

	// Read-only archive.
	defer func() {
		_ = archive.Close()
	}()

	entries, err := indexEntries(archive.File)
	if err != nil {
		return nil, err
	}

	report := &Report{Archive: path}

	if report.Manifest, err = readManifest(entries); err != nil {
		return nil, err
	}

	app := report.Manifest.Manifest.Application

	binEntry, ok := entries[app.BinFile]
	if !ok {
		return nil, fmt.Errorf("%w: binary %s is missing", ErrInvalidArchive, app.BinFile)
	}

	datEntry, ok := entries[app.DatFile]
	if !ok {
		return nil, fmt.Errorf("%w: init packet %s is missing", ErrInvalidArchive, app.DatFile)
	}

	raw, err := readEntry(datEntry)
	if err != nil {
		return nil, err
	}

	if report.InitPacket, err = dfu.ParseInitPacket(raw); err != nil {
		return nil, fmt.Errorf("%s: %w", app.DatFile, err)
	}

	if report.ActualCRC, err = entryChecksum(binEntry); err != nil {
		return nil, err
	}

	report.BinSize = binEntry.UncompressedSize64

	logger.DebugKV(ctx, "Inspected archive",
		"archive", path,
		"record_crc32", fmt.Sprintf("%08x", report.InitPacket.CRC),
		"actual_crc32", fmt.Sprintf("%08x", report.ActualCRC),
	)

	if report.ActualCRC != report.InitPacket.CRC {
		return report, fmt.Errorf("%s: %w", app.BinFile, ErrChecksumMismatch)
	}

	return report, nil
}

// indexEntries maps entry names to files and enforces the flat three-entry layout.
func indexEntries(files []*zip.File) (map[string]*zip.File, error) {
	if len(files) != expectedEntries {
		return nil, fmt.Errorf("%w: %d entries, want %d", ErrInvalidArchive, len(files), expectedEntries)
	}

	entries := make(map[string]*zip.File, len(files))

	for _, f := range files {
		if filepath.Base(f.Name) != f.Name {
			return nil, fmt.Errorf("%w: entry %q is not top-level", ErrInvalidArchive, f.Name)
		}

		if _, dup := entries[f.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate entry %q", ErrInvalidArchive, f.Name)
		}

		entries[f.Name] = f
	}

	return entries, nil
}

// readManifest decodes manifest.json from the archive.
func readManifest(entries map[string]*zip.File) (*dfu.Manifest, error) {
	entry, ok := entries[dfu.ManifestFilename]
	if !ok {
		return nil, fmt.Errorf("%w: %s is missing", ErrInvalidArchive, dfu.ManifestFilename)
	}

	data, err := readEntry(entry)
	if err != nil {
		return nil, err
	}

	return dfu.DecodeManifest(data)
}

// readEntry returns the full contents of a small archive entry.
func readEntry(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}

	defer func() {
		_ = rc.Close()
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}

	return data, nil
}

// entryChecksum streams an archive entry through CRC-32.
func entryChecksum(f *zip.File) (uint32, error) {
	rc, err := f.Open()
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", f.Name, err)
	}

	defer func() {
		_ = rc.Close()
	}()

	crc, err := checksum.Reader(rc, checksum.DefaultChunkSize)
	if err != nil {
		return 0, fmt.Errorf("checksum %s: %w", f.Name, err)
	}

	return crc, nil
}
