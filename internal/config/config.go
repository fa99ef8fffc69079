package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/oshokin/dfu-packager/internal/logger"
)

// Config holds the packaging layout and tuning shared by the dfu-packager commands.
type Config struct {
	// BuildDir is the directory receiving the final DFU archive.
	BuildDir string `yaml:"build_dir"`
	// WorkDir is the staging directory, relative to BuildDir, recreated on every run.
	WorkDir string `yaml:"work_dir"`
	// ChunkSize is the read buffer size used while computing the checksum.
	ChunkSize int `yaml:"chunk_size"`
	// LogLevel is the minimum level of emitted log messages.
	LogLevel string `yaml:"log_level"`
}

const (
	// DefaultConfigFilename is the default filename for packaging settings.
	DefaultConfigFilename = "dfu-packager.yaml"

	// DefaultBuildDir is where the archive is written when no build_dir is set.
	DefaultBuildDir = "build"

	// DefaultWorkDir is the staging directory name inside the build directory.
	DefaultWorkDir = "dfu"

	// DefaultChunkSize is the checksum read buffer size (64 KiB).
	DefaultChunkSize = 64 * 1024

	// MaxChunkSize caps the checksum read buffer (16 MiB).
	MaxChunkSize = 16 * 1024 * 1024

	// DefaultLogLevel is used when log_level is empty.
	DefaultLogLevel = "info"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNegativeChunkSize is returned when chunk_size is below zero.
	errNegativeChunkSize = errors.New("chunk size must not be negative")
	// errChunkSizeTooLarge is returned when chunk_size exceeds MaxChunkSize.
	errChunkSizeTooLarge = errors.New("chunk size is too large")
	// errUnknownLogLevel is returned for log levels zap does not know.
	errUnknownLogLevel = errors.New("unknown log level")
	// errWorkDirOutsideBuild is returned when work_dir would escape the build directory.
	errWorkDirOutsideBuild = errors.New("work directory must be a relative path inside the build directory")
)

// Default returns a configuration with the standard build/dfu layout.
func Default() *Config {
	return &Config{
		BuildDir:  DefaultBuildDir,
		WorkDir:   DefaultWorkDir,
		ChunkSize: DefaultChunkSize,
		LogLevel:  DefaultLogLevel,
	}
}

// Load reads configuration from the provided path and validates essential fields.
// A missing file at the default location is not an error: defaults are returned.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}

		return nil, fmt.Errorf("read settings: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(contents, cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate fills defaults and checks the provided settings.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.BuildDir == "" {
		cfg.BuildDir = DefaultBuildDir
	}

	if cfg.WorkDir == "" {
		cfg.WorkDir = DefaultWorkDir
	}

	cleaned := filepath.Clean(cfg.WorkDir)
	if filepath.IsAbs(cleaned) || cleaned == "." || cleaned == ".." ||
		strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%q: %w", cfg.WorkDir, errWorkDirOutsideBuild)
	}

	if cfg.ChunkSize < 0 {
		return errNegativeChunkSize
	}

	if cfg.ChunkSize > MaxChunkSize {
		return fmt.Errorf("%d > %d: %w", cfg.ChunkSize, MaxChunkSize, errChunkSizeTooLarge)
	}

	if cfg.ChunkSize == 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if _, ok := logger.ParseLogLevel(cfg.LogLevel); !ok {
		return fmt.Errorf("%q: %w", cfg.LogLevel, errUnknownLogLevel)
	}

	return nil
}

// WorkPath returns the staging directory path (BuildDir joined with WorkDir).
func (c *Config) WorkPath() string {
	return filepath.Join(c.BuildDir, c.WorkDir)
}
