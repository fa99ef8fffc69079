package packager

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/oshokin/dfu-packager/internal/repository/workspace"
)

// writeArchive creates dest and stores every source as a top-level entry named
// by its base name. A partially written archive is removed on failure.
func writeArchive(dest string, sources ...string) (err error) {
	if err = os.MkdirAll(filepath.Dir(dest), workspace.DirPermissions); err != nil {
		return fmt.Errorf("create archive directory: %w", err)
	}

	out, err := os.OpenFile(filepath.Clean(dest), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, workspace.FilePermissions)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}

	defer func() {
		if err != nil {
			_ = os.Remove(dest)
		}
	}()

	archive := zip.NewWriter(out)

	for _, src := range sources {
		if err = addEntry(archive, src); err != nil {
			_ = archive.Close()
			_ = out.Close()

			return err
		}
	}

	if err = archive.Close(); err != nil {
		_ = out.Close()
		return fmt.Errorf("finish archive: %w", err)
	}

	if err = out.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	return nil
}

// addEntry deflates one file into the archive under its base name.
func addEntry(archive *zip.Writer, src string) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("open %s: %w", src, err)
	}

	// Read-only handle.
	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", src, err)
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header for %s: %w", src, err)
	}

	header.Name = filepath.Base(src)
	header.Method = zip.Deflate

	w, err := archive.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("add %s: %w", header.Name, err)
	}

	if _, err = io.Copy(w, in); err != nil {
		return fmt.Errorf("compress %s: %w", header.Name, err)
	}

	return nil
}
