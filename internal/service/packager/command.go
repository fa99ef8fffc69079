package packager

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/oshokin/dfu-packager/internal/checksum"
	"github.com/oshokin/dfu-packager/internal/config"
	"github.com/oshokin/dfu-packager/internal/domain/dfu"
	"github.com/oshokin/dfu-packager/internal/logger"
	"github.com/oshokin/dfu-packager/internal/repository/workspace"
)

// Options contains inputs for the packager entry point.
// It is built once from parsed arguments and not modified afterwards.
type Options struct {
	// InputPath is the firmware binary to package.
	InputPath string
	// Config holds the output layout; nil means config.Default().
	Config *config.Config
}

// Package describes the artifacts produced by a successful run.
type Package struct {
	// Input is the firmware binary as given by the caller.
	Input string
	// Names are the base names of the package files.
	Names dfu.Names
	// WorkDir is the staging directory.
	WorkDir string
	// BinPath is the staged copy of the firmware binary.
	BinPath string
	// DatPath is the staged init packet.
	DatPath string
	// ManifestPath is the staged manifest.
	ManifestPath string
	// ArchivePath is the final DFU archive.
	ArchivePath string
	// CRC is the CRC-32 of the firmware binary.
	CRC uint32
	// InitPacket is the record written to DatPath.
	InitPacket dfu.InitPacket
}

var (
	// ErrInputNotFound is returned when the input path is not an existing regular file.
	ErrInputNotFound = errors.New("file not found")
	// ErrInputInWorkDir is returned when the input would be wiped by the staging reset.
	ErrInputInWorkDir = errors.New("input file is inside the staging directory")
	// ErrNameConflict is returned when the input name clashes with a generated file.
	ErrNameConflict = errors.New("input file name clashes with a generated package file")

	// errOptionsNotSet is returned when Run is called without options.
	errOptionsNotSet = errors.New("packager options are not set")
)

// packager assembles one DFU package.
// It is unexported, callers should use Run, which encapsulates setup and validation.
type packager struct {
	// cfg holds the output layout and checksum chunk size.
	cfg *config.Config
	// input is the validated firmware path.
	input string
	// names are derived from input.
	names dfu.Names
	// stage is where the .dat, manifest and binary copy are written.
	stage workspace.Workspace
}

// Run validates the input and builds the DFU archive.
func Run(ctx context.Context, opts *Options) (*Package, error) {
	ctx = logger.WithName(ctx, "dfu-packager")

	if opts == nil {
		return nil, errOptionsNotSet
	}

	pkg, err := newPackager(opts)
	if err != nil {
		return nil, err
	}

	result, err := pkg.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("packager failed: %w", err)
	}

	logger.Infof(ctx, "DFU package is ready: %s", result.ArchivePath)

	return result, nil
}

// newPackager validates the options and prepares the staging workspace.
func newPackager(opts *Options) (*packager, error) {
	cfg := config.Default()
	if opts.Config != nil {
		copied := *opts.Config
		cfg = &copied
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	stage, err := workspace.NewDirectory(cfg.WorkPath())
	if err != nil {
		return nil, err
	}

	if err = validateInput(opts.InputPath, stage); err != nil {
		return nil, err
	}

	return &packager{
		cfg:   cfg,
		input: opts.InputPath,
		names: dfu.NamesFor(opts.InputPath),
		stage: stage,
	}, nil
}

// validateInput accepts only existing regular files that live outside the staging directory.
func validateInput(path string, stage *workspace.Directory) error {
	if path == "" {
		return ErrInputNotFound
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, ErrInputNotFound)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file: %w", path, ErrInputNotFound)
	}

	inside, err := stage.Contains(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}

	if inside {
		return fmt.Errorf("%s in %s: %w", path, stage.Root(), ErrInputInWorkDir)
	}

	names := dfu.NamesFor(path)
	if names.Bin == names.Dat || names.Bin == dfu.ManifestFilename {
		return fmt.Errorf("%s: %w", names.Bin, ErrNameConflict)
	}

	return nil
}

// Run executes the packaging stages in order and stops at the first failure.
func (p *packager) Run(ctx context.Context) (*Package, error) {
	ctx = logger.WithKV(ctx, "input", p.input)

	logger.Info(ctx, "Packaging firmware")

	result := &Package{
		Input:       p.input,
		Names:       p.names,
		WorkDir:     p.stage.Root(),
		ArchivePath: filepath.Join(p.cfg.BuildDir, p.names.Archive),
	}

	steps := []struct {
		name string
		run  func(context.Context, *Package) error
	}{
		{"compute checksum", p.computeChecksum},
		{"prepare workspace", p.prepareWorkspace},
		{"write init packet", p.writeInitPacket},
		{"stage binary", p.stageBinary},
		{"write manifest", p.writeManifest},
		{"build archive", p.buildArchive},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if err := step.run(ctx, result); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}

	return result, nil
}

// computeChecksum streams the input through CRC-32.
func (p *packager) computeChecksum(ctx context.Context, result *Package) error {
	crc, err := checksum.File(p.input, p.cfg.ChunkSize)
	if err != nil {
		return err
	}

	result.CRC = crc

	logger.InfoKV(ctx, "Computed checksum", "crc32", fmt.Sprintf("%08x", crc))

	return nil
}

// prepareWorkspace clears the staging directory left by a previous run.
func (p *packager) prepareWorkspace(ctx context.Context, _ *Package) error {
	logger.DebugKV(ctx, "Recreating staging directory", "path", p.stage.Root())

	return p.stage.Reset(ctx)
}

// writeInitPacket stores the 16-byte record as <stem>.dat.
func (p *packager) writeInitPacket(ctx context.Context, result *Package) error {
	result.InitPacket = dfu.NewInitPacket(result.CRC)

	logger.Debugf(ctx, "DFU init packet: %s", result.InitPacket)

	path, err := p.stage.WriteFile(ctx, p.names.Dat, result.InitPacket.Bytes())
	if err != nil {
		return err
	}

	result.DatPath = path

	logger.InfoKV(ctx, "Wrote init packet", "path", path)

	return nil
}

// stageBinary copies the firmware next to the generated files.
func (p *packager) stageBinary(ctx context.Context, result *Package) error {
	path, err := p.stage.CopyFile(ctx, p.input)
	if err != nil {
		return err
	}

	result.BinPath = path

	logger.DebugKV(ctx, "Staged firmware binary", "path", path)

	return nil
}

// writeManifest stores manifest.json naming the binary and the init packet.
func (p *packager) writeManifest(ctx context.Context, result *Package) error {
	contents, err := dfu.NewManifest(p.names.Bin, p.names.Dat).Encode()
	if err != nil {
		return err
	}

	path, err := p.stage.WriteFile(ctx, dfu.ManifestFilename, contents)
	if err != nil {
		return err
	}

	result.ManifestPath = path

	logger.InfoKV(ctx, "Wrote manifest", "path", path)

	return nil
}

// buildArchive zips the three staged files into the final artifact.
func (p *packager) buildArchive(ctx context.Context, result *Package) error {
	if err := writeArchive(result.ArchivePath, result.BinPath, result.DatPath, result.ManifestPath); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Wrote archive", "path", result.ArchivePath)

	return nil
}
