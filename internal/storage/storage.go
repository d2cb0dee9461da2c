// Package storage реализует границу персистентности: хранилище целого
// документа состояния, перезаписываемого при каждой принятой мутации.
package storage

import (
	"context"
	"errors"

	"github.com/nexussleep/sleepnexus-system/internal/config"
)

// ErrNotFound возвращается при первом запуске, когда документ ещё не записан.
var ErrNotFound = errors.New("state document not found")

// Blob описывает контракт хранилища документа состояния.
// Save всегда перезаписывает документ целиком, частичных записей нет.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, document []byte) error
	Close() error
}

// New выбирает бэкенд хранилища по конфигурации: PostgreSQL, если задан
// адрес базы, иначе файл на диске.
func New(cfg *config.Config) (Blob, error) {
	if cfg.DatabaseURI != "" {
		return NewPostgresBlob(cfg.DatabaseURI)
	}
	return NewFileBlob(cfg.StateFile), nil
}
