package core

import (
	"fmt"
	"io"
	"os"
)

// AtomicWriteConfig controls atomic writing behavior.
type AtomicWriteConfig struct {
	UseFsync       bool   // force fsync before rename
	TempSuffix     string // suffix for the temporary file
	BackupOriginal bool   // keep a .bak copy of the original
}

// DefaultAtomicConfig provides sensible defaults.
func DefaultAtomicConfig() AtomicWriteConfig {
	return AtomicWriteConfig{
		UseFsync:       false,
		TempSuffix:     ".sqlmorph.tmp",
		BackupOriginal: false,
	}
}

// AtomicWriter writes rewritten sources without ever leaving a torn
// file behind: content lands in a temporary sibling first and replaces
// the target with a rename.
type AtomicWriter struct {
	config AtomicWriteConfig
}

// NewAtomicWriter creates an atomic writer.
func NewAtomicWriter(config AtomicWriteConfig) *AtomicWriter {
	if config.TempSuffix == "" {
		config.TempSuffix = DefaultAtomicConfig().TempSuffix
	}
	return &AtomicWriter{config: config}
}

// WriteFile atomically replaces path with content, preserving the file
// mode of an existing target.
func (aw *AtomicWriter) WriteFile(path, content string) error {
	var mode os.FileMode = 0o644
	original, err := os.Stat(path)
	exists := err == nil
	if exists {
		mode = original.Mode()
	}

	if aw.config.BackupOriginal && exists {
		if err := copyFile(path, path+".bak", mode); err != nil {
			return fmt.Errorf("failed to create backup: %w", err)
		}
	}

	tempPath := path + aw.config.TempSuffix
	tempFile, err := os.OpenFile(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tempFile.WriteString(content); err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if aw.config.UseFsync {
		if err := tempFile.Sync(); err != nil {
			tempFile.Close()
			os.Remove(tempPath)
			return fmt.Errorf("failed to sync temp file: %w", err)
		}
	}
	if err := tempFile.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
