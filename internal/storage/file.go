package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileBlob хранит документ состояния в одном файле на диске.
type FileBlob struct {
	path string
	mu   sync.Mutex
}

// NewFileBlob создаёт файловое хранилище по указанному пути.
func NewFileBlob(path string) *FileBlob {
	return &FileBlob{path: path}
}

// Load читает последний записанный документ.
func (f *FileBlob) Load(_ context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(data) == 0 {
		return nil, ErrNotFound
	}
	return data, nil
}

// Save перезаписывает документ. Запись идёт во временный файл с последующим
// переименованием, чтобы сбой посреди записи не портил прежний документ.
func (f *FileBlob) Save(_ context.Context, document []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}

	if _, err := tmp.Write(document); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// Close ничего не освобождает: файловых дескрипторов между вызовами не остаётся.
func (f *FileBlob) Close() error {
	return nil
}
