package service

import (
	"encoding/json"
	"errors"

	"github.com/nexussleep/sleepnexus-system/internal/migrate"
	"github.com/nexussleep/sleepnexus-system/internal/validation"
)

// ErrInvalidPayload возвращается для неразборчивого или неполного импортируемого профиля.
var ErrInvalidPayload = errors.New("invalid profile payload")

// Import разбирает сериализованный профиль, нормализует его через ту же
// логику наложения, что и миграция, и вливает в состояние: совпадение по
// username перезаписывает существующий профиль с сохранением его id, иначе
// кандидат добавляется новым профилем. До успешной валидации состояние не
// меняется. Возвращается id профиля, ставшего активным.
func (s *Service) Import(payload []byte) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(payload, &doc); err != nil {
		return "", ErrInvalidPayload
	}

	if !validation.HasRequiredProfileFields(doc) {
		return "", ErrInvalidPayload
	}

	candidate := migrate.OverlayProfile(doc)

	return s.store.Merge(candidate), nil
}

// Export сериализует активный профиль в формате, который принимает Import.
func (s *Service) Export() ([]byte, error) {
	p, ok := s.store.Active()
	if !ok {
		return nil, errors.New("no active profile")
	}
	return json.Marshal(p)
}
