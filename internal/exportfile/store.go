// Package exportfile saves and loads CSV exports on the local disk.
//
// Saves go through a temporary sibling file that is renamed into place, so an
// interrupted export never truncates an existing backup.
package exportfile

import (
	"bytes"
	stdErrors "errors"
	"io"
	"os"
	"path/filepath"

	apperrors "contactbook/internal/errors"
)

const tempSuffix = ".part"

// Result describes a completed save.
type Result struct {
	Path     string
	Checksum string
	Bytes    int
	// Unchanged is true when the file already held identical content and
	// was left untouched.
	Unchanged bool
}

// Store reads and writes export files through a FileSystem.
type Store struct {
	fs FileSystem
}

// NewStore returns a Store. A nil fs selects the OS filesystem.
func NewStore(fs FileSystem) *Store {
	if fs == nil {
		fs = OSFileSystem{}
	}
	return &Store{fs: fs}
}

// Save writes data to path.
func (s *Store) Save(path string, data []byte) (Result, error) {
	sum, err := CalculateSHA256(bytes.NewReader(data))
	if err != nil {
		return Result{}, err
	}
	result := Result{Path: path, Checksum: sum, Bytes: len(data)}

	if existing, err := s.existingChecksum(path); err != nil {
		return Result{}, err
	} else if existing == sum {
		result.Unchanged = true
		return result, nil
	}

	if err := s.fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Result{}, fileError("failed to create directory", "prepare", err).
			WithField("path", filepath.Dir(path))
	}

	tempPath := path + tempSuffix
	if err := s.write(tempPath, data); err != nil {
		_ = s.fs.Remove(tempPath)
		return Result{}, err
	}

	if err := s.fs.Rename(tempPath, path); err != nil {
		_ = s.fs.Remove(tempPath)
		return Result{}, fileError("failed to move export into place", "finalize", err).
			WithFields(apperrors.Metadata{
				"source": tempPath,
				"target": path,
			})
	}

	return result, nil
}

// Load reads the whole file at path.
func (s *Store) Load(path string) ([]byte, error) {
	file, err := s.fs.Open(path)
	if err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NotFoundError(apperrors.CodeNotFound, "file does not exist", err).
				WithModule("exportfile").
				WithOperation("load").
				WithField("path", path)
		}
		return nil, fileError("failed to open file", "load", err).WithField("path", path)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fileError("failed to read file", "load", err).WithField("path", path)
	}
	return data, nil
}

func (s *Store) existingChecksum(path string) (string, error) {
	if _, err := s.fs.Stat(path); err != nil {
		if stdErrors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", fileError("failed to inspect local file", "save", err).WithField("path", path)
	}
	sum, err := fileChecksum(s.fs, path)
	if err != nil {
		// unreadable target is overwritten like a missing one
		return "", nil
	}
	return sum, nil
}

func (s *Store) write(path string, data []byte) error {
	file, err := s.fs.Create(path)
	if err != nil {
		return fileError("failed to create temporary file", "write", err).WithField("path", path)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		return fileError("failed to write export", "write", err).WithField("path", path)
	}
	if err := file.Close(); err != nil {
		return fileError("failed to flush export", "write", err).WithField("path", path)
	}
	return nil
}

func fileError(message, operation string, err error) *apperrors.AppError {
	return apperrors.SystemError(apperrors.CodeSystemGeneric, message, err).
		WithModule("exportfile").
		WithOperation(operation)
}
