package datalogger

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Storage is the append-only log on the removable medium.
type Storage interface {
	// IsPresent re-probes the medium; it may be pulled and reinserted
	// between loop iterations.
	IsPresent() bool
	// EnsureHeader creates the log file with header as its only line iff
	// the file does not exist. Called once, at startup.
	EnsureHeader(header string) error
	// CheckWritable confirms the log file can be opened for append, with
	// one open/close cycle and no write.
	CheckWritable() error
	// Append opens the file in append mode, writes one line, and closes
	// it. It never truncates prior content.
	Append(line string) error
}

// MediaLog is a Storage on a removable medium mounted at a fixed directory.
// The file handle is scoped to a single operation: opened, written, closed.
// Nothing is held open between iterations, so yanking the card mid-cycle
// cannot corrupt lines already on it.
type MediaLog struct {
	fs       afero.Fs
	mountDir string
	path     string
	log      logrus.FieldLogger
}

func NewMediaLog(fs afero.Fs, mountDir, fileName string, log logrus.FieldLogger) *MediaLog {
	return &MediaLog{
		fs:       fs,
		mountDir: mountDir,
		path:     filepath.Join(mountDir, fileName),
		log:      log.WithField("component", "storage"),
	}
}

// Path returns the full path of the log file on the medium.
func (m *MediaLog) Path() string { return m.path }

func (m *MediaLog) IsPresent() bool {
	fi, err := m.fs.Stat(m.mountDir)
	return err == nil && fi.IsDir()
}

func (m *MediaLog) EnsureHeader(header string) error {
	// O_EXCL guarantees write-iff-absent: an existing file, created on
	// any earlier power cycle, is left untouched.
	f, err := m.fs.OpenFile(m.path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if os.IsExist(err) {
			m.log.WithField("path", m.path).Info("log file already exists, keeping header")
			return nil
		}
		return fmt.Errorf("creating log file: %w", err)
	}
	if _, err := f.WriteString(header + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("writing header: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	m.log.WithField("path", m.path).Info("log file created")
	return nil
}

func (m *MediaLog) CheckWritable() error {
	f, err := m.fs.OpenFile(m.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("log file not writable: %w", err)
	}
	return f.Close()
}

func (m *MediaLog) Append(line string) error {
	// Deliberately no O_CREATE: the header invariant belongs to
	// EnsureHeader, and a blank swapped-in card must not grow a
	// headerless file.
	f, err := m.fs.OpenFile(m.path, os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening log file for append: %w", err)
	}
	if _, err := f.WriteString(line + "\n"); err != nil {
		f.Close()
		return fmt.Errorf("appending record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}
