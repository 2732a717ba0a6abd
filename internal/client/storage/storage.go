package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/atinyakov/carebook/internal/models"
)

// errCorrupt marks a credential file whose contents are not a JSON object.
var errCorrupt = errors.New("corrupt credential file")

// DefaultFile is the credential file name used when no path is configured.
const DefaultFile = "session.json"

// FileStore keeps the entries as a flat JSON object of string values in a
// single file. Every write replaces the whole file through a rename, so a
// crash never leaves a token without its profile or the reverse.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store backed by the file at path.
func NewFileStore(path string) *FileStore {
	if path == "" {
		path = DefaultFile
	}
	return &FileStore{path: path}
}

// Path reports the backing file location.
func (fs *FileStore) Path() string { return fs.path }

func (fs *FileStore) Save(token string, user models.User) error {
	entries, err := encodePair(token, user)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}

	fs.mu.Lock()
	defer fs.mu.Unlock()

	current, err := fs.read()
	if errors.Is(err, errCorrupt) {
		// an undecodable file holds nothing worth keeping; replace it
		current, err = map[string]string{}, nil
	}
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	current[tokenKey] = entries[tokenKey]
	current[userKey] = entries[userKey]

	if err := fs.write(current); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

func (fs *FileStore) Load() (string, *models.User, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := fs.read()
	if err != nil {
		return "", nil, &StorageError{Op: "load", Err: err}
	}
	token, user := decodePair(entries)
	return token, user, nil
}

func (fs *FileStore) Clear() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	entries, err := fs.read()
	if err != nil {
		// An unreadable file cannot hold a usable pair; drop it entirely.
		if rmErr := os.Remove(fs.path); rmErr != nil && !os.IsNotExist(rmErr) {
			return &StorageError{Op: "clear", Err: rmErr}
		}
		return nil
	}
	delete(entries, tokenKey)
	delete(entries, userKey)

	if len(entries) == 0 {
		if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
			return &StorageError{Op: "clear", Err: err}
		}
		return nil
	}
	if err := fs.write(entries); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

func (fs *FileStore) read() (map[string]string, error) {
	data, err := os.ReadFile(fs.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	entries := map[string]string{}
	if len(data) == 0 {
		return entries, nil
	}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode %s: %w: %w", fs.path, errCorrupt, err)
	}
	return entries, nil
}

func (fs *FileStore) write(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return atomicWriteFile(fs.path, data, 0o600)
}

// atomicWriteFile writes data to a temp file next to filename and renames it
// into place once it is synced.
func atomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	var ok bool
	defer func() {
		if !ok {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	ok = true
	return nil
}

// MemoryStore is an in-process CredentialStore. Setting FailWrites makes
// Save and Clear return a StorageError wrapping it.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]string
	FailWrites error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: map[string]string{}}
}

func (ms *MemoryStore) Save(token string, user models.User) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailWrites != nil {
		return &StorageError{Op: "save", Err: ms.FailWrites}
	}
	entries, err := encodePair(token, user)
	if err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	if ms.entries == nil {
		ms.entries = map[string]string{}
	}
	ms.entries[tokenKey] = entries[tokenKey]
	ms.entries[userKey] = entries[userKey]
	return nil
}

func (ms *MemoryStore) Load() (string, *models.User, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	token, user := decodePair(ms.entries)
	return token, user, nil
}

func (ms *MemoryStore) Clear() error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if ms.FailWrites != nil {
		return &StorageError{Op: "clear", Err: ms.FailWrites}
	}
	delete(ms.entries, tokenKey)
	delete(ms.entries, userKey)
	return nil
}

// Set writes a raw entry, bypassing pair semantics. Tests use it to model
// externally tampered storage.
func (ms *MemoryStore) Set(key, value string) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	if ms.entries == nil {
		ms.entries = map[string]string{}
	}
	ms.entries[key] = value
}

var errEmptyToken = errors.New("empty token")

func encodePair(token string, user models.User) (map[string]string, error) {
	if token == "" {
		return nil, errEmptyToken
	}
	b, err := json.Marshal(snapshotOf(user))
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}
	return map[string]string{tokenKey: token, userKey: string(b)}, nil
}

// decodePair yields both entries or neither. A snapshot that fails to decode
// counts as missing.
func decodePair(entries map[string]string) (string, *models.User) {
	token, ok := entries[tokenKey]
	if !ok || token == "" {
		return "", nil
	}
	raw, ok := entries[userKey]
	if !ok || raw == "" {
		return "", nil
	}
	var s snapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return "", nil
	}
	u := s.user()
	return token, &u
}
