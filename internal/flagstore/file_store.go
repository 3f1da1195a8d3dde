package flagstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	flagFilePermissionsConstant      = 0o600
	flagDirectoryPermissionsConstant = 0o755
	temporaryFilePatternConstant     = ".flags-*.yaml"
	readFlagFileTemplateConstant     = "read flag file %s: %w"
	decodeFlagFileTemplateConstant   = "decode flag file %s: %w"
	writeFlagFileTemplateConstant    = "write flag file %s: %w"
)

// FileStore keeps flags in a YAML document on disk. Writes replace the file atomically.
type FileStore struct {
	mutex sync.Mutex
	path  string
}

// NewFileStore constructs a FileStore backed by path. The file is created on first write.
func NewFileStore(path string) (*FileStore, error) {
	trimmedPath := strings.TrimSpace(path)
	if len(trimmedPath) == 0 {
		return nil, ErrMissingFilePath
	}
	return &FileStore{path: trimmedPath}, nil
}

// Path returns the backing file location.
func (store *FileStore) Path() string {
	return store.path
}

// Bool implements Store.
func (store *FileStore) Bool(_ context.Context, key string) (bool, error) {
	if keyError := validateKey(key); keyError != nil {
		return false, keyError
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	values, readError := store.read()
	if readError != nil {
		return false, readError
	}
	return values[key], nil
}

// SetBool implements Store.
func (store *FileStore) SetBool(_ context.Context, key string, value bool) error {
	if keyError := validateKey(key); keyError != nil {
		return keyError
	}
	store.mutex.Lock()
	defer store.mutex.Unlock()

	values, readError := store.read()
	if readError != nil {
		return readError
	}
	values[key] = value
	return store.write(values)
}

func (store *FileStore) read() (map[string]bool, error) {
	contents, readError := os.ReadFile(store.path)
	if errors.Is(readError, fs.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if readError != nil {
		return nil, fmt.Errorf(readFlagFileTemplateConstant, store.path, readError)
	}

	values := map[string]bool{}
	if decodeError := yaml.Unmarshal(contents, &values); decodeError != nil {
		return nil, fmt.Errorf(decodeFlagFileTemplateConstant, store.path, decodeError)
	}
	if values == nil {
		values = map[string]bool{}
	}
	return values, nil
}

func (store *FileStore) write(values map[string]bool) error {
	contents, encodeError := yaml.Marshal(values)
	if encodeError != nil {
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, encodeError)
	}

	directory := filepath.Dir(store.path)
	if mkdirError := os.MkdirAll(directory, flagDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, mkdirError)
	}

	temporaryFile, createError := os.CreateTemp(directory, temporaryFilePatternConstant)
	if createError != nil {
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, createError)
	}
	temporaryPath := temporaryFile.Name()
	defer os.Remove(temporaryPath)

	if _, writeError := temporaryFile.Write(contents); writeError != nil {
		temporaryFile.Close()
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, writeError)
	}
	if syncError := temporaryFile.Sync(); syncError != nil {
		temporaryFile.Close()
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, syncError)
	}
	if closeError := temporaryFile.Close(); closeError != nil {
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, closeError)
	}
	if chmodError := os.Chmod(temporaryPath, flagFilePermissionsConstant); chmodError != nil {
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, chmodError)
	}
	if renameError := os.Rename(temporaryPath, store.path); renameError != nil {
		return fmt.Errorf(writeFlagFileTemplateConstant, store.path, renameError)
	}
	return nil
}
