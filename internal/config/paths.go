package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths contains the resolved directories used at runtime.
type Paths struct {
	ExecutableDir string
	DataDir       string
	ExportDir     string
	LogsDir       string
}

// GetPaths returns the resolved paths of c.
func (c *Config) GetPaths() *Paths {
	return &Paths{
		ExecutableDir: c.Paths.ExecutableDir,
		DataDir:       c.Paths.DataDir,
		ExportDir:     c.Paths.ExportDir,
		LogsDir:       c.Paths.LogsDir,
	}
}

// EnsureDirectories creates the writable directories if they are missing.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.ExportDir, p.LogsDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LogPathResolution logs the resolved paths at debug level.
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved application paths",
		slog.String("executable_dir", p.ExecutableDir),
		slog.String("data_dir", p.DataDir),
		slog.String("export_dir", p.ExportDir),
		slog.String("logs_dir", p.LogsDir))
}

// executableDir returns the directory of the running binary, following symlinks.
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %v", err)
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}
	return filepath.Dir(exe), nil
}
