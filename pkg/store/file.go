package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// FileStore keeps every key in one JSON document on disk, rewritten whole on
// each change.
type FileStore struct {
	mu   sync.RWMutex
	path string
	file *os.File
	data map[string]json.RawMessage
}

// OpenFileStore opens (or creates) the backing file at path.
func OpenFileStore(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("could not create data directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600)
	if err != nil {
		return nil, fmt.Errorf("could not open store file: %w", err)
	}
	fs := &FileStore{path: path, file: f, data: map[string]json.RawMessage{}}
	if err := fs.load(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return fs, nil
}

// quarantine moves an unreadable document aside so the store starts empty.
func (fs *FileStore) quarantine(cause error) error {
	aside := fmt.Sprintf("%s.corrupt-%d", fs.path, time.Now().UnixNano())
	if err := fs.file.Close(); err != nil {
		return err
	}
	if err := os.Rename(fs.path, aside); err != nil {
		return fmt.Errorf("could not move corrupt store file aside: %w", err)
	}
	f, err := os.OpenFile(fs.path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("could not open store file: %w", err)
	}
	fs.file = f
	fs.data = map[string]json.RawMessage{}
	logrus.WithError(cause).WithFields(logrus.Fields{"path": fs.path, "moved_to": aside}).
		Warn("store file is unreadable, starting empty")
	return nil
}

func (fs *FileStore) load() error {
	info, err := fs.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}
	if err := json.NewDecoder(fs.file).Decode(&fs.data); err != nil {
		return fs.quarantine(err)
	}
	if fs.data == nil {
		fs.data = map[string]json.RawMessage{}
	}
	return nil
}

func (fs *FileStore) flushLocked() error {
	if _, err := fs.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	enc := json.NewEncoder(fs.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(fs.data); err != nil {
		return err
	}
	// truncate in case new content is shorter
	pos, err := fs.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}
	if err := fs.file.Truncate(pos); err != nil {
		return err
	}
	return fs.file.Sync()
}

// Get returns the raw value stored under key. Values are stored as JSON
// strings so arbitrary bytes survive the round trip; a hand-edited value that
// is not a string comes back as its JSON text for the caller to judge.
func (fs *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	raw, ok := fs.data[key]
	if !ok {
		return nil, ErrKeyNotFound
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return append([]byte(nil), raw...), nil
	}
	return []byte(s), nil
}

func (fs *FileStore) Put(ctx context.Context, key string, value []byte) error {
	raw, err := json.Marshal(string(value))
	if err != nil {
		return err
	}
	return fs.withWrite(ctx, func(data map[string]json.RawMessage) {
		data[key] = raw
	})
}

func (fs *FileStore) Delete(ctx context.Context, key string) error {
	return fs.withWrite(ctx, func(data map[string]json.RawMessage) {
		delete(data, key)
	})
}

func (fs *FileStore) withWrite(ctx context.Context, fn func(map[string]json.RawMessage)) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	fn(fs.data)
	if err := fs.flushLocked(); err != nil {
		return fmt.Errorf("failed to flush store file: %w", err)
	}
	return nil
}

func (fs *FileStore) Close() error { return fs.file.Close() }
