// Package store содержит единственного владельца GlobalState и примитив
// мутации, через который проходят все изменения состояния.
package store

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/nexussleep/sleepnexus-system/internal/model"
)

// Saver описывает границу персистентности, в которую store записывает
// документ после каждой принятой мутации.
type Saver interface {
	Save(ctx context.Context, document []byte) error
}

// Store владеет единственным экземпляром GlobalState. Все мутации
// сериализуются мьютексом, каждая принятая мутация порождает новый
// снимок состояния и его полную перезапись в хранилище. Запись
// fire-and-forget: её сбой попадает в журнал и не откатывает мутацию.
type Store struct {
	mu     sync.Mutex
	state  model.GlobalState
	saver  Saver
	logger *zap.Logger
}

// New создаёт store с уже нормализованным начальным состоянием.
// Первая запись в хранилище произойдёт только после первой мутации,
// поэтому store нельзя создавать до завершения гидратации.
func New(initial model.GlobalState, saver Saver, logger *zap.Logger) *Store {
	return &Store{
		state:  initial,
		saver:  saver,
		logger: logger,
	}
}

// Snapshot возвращает глубокую копию текущего состояния.
func (s *Store) Snapshot() model.GlobalState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Active возвращает копию активного профиля. Если activeProfileId
// указывает в никуда, берётся первый профиль списка.
func (s *Store) Active() (model.UserProfile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.activeIndex(); i >= 0 {
		return s.state.Profiles[i].Clone(), true
	}
	if len(s.state.Profiles) > 0 {
		return s.state.Profiles[0].Clone(), true
	}
	return model.UserProfile{}, false
}

// activeIndex ищет индекс профиля с активным id; вызывается под мьютексом.
func (s *Store) activeIndex() int {
	for i, p := range s.state.Profiles {
		if p.ID == s.state.ActiveProfileID {
			return i
		}
	}
	return -1
}

// UpdateActiveProfile применяет update к активному профилю и фиксирует
// результат как новый снимок. Ошибка update отменяет мутацию целиком.
// Отсутствующий активный профиль делает вызов no-op: при корректной
// работе такого не бывает, но падать из-за этого нельзя.
func (s *Store) UpdateActiveProfile(update func(model.UserProfile) (model.UserProfile, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.activeIndex()
	if i < 0 {
		return nil
	}

	updated, err := update(s.state.Profiles[i].Clone())
	if err != nil {
		return err
	}

	next := s.state.Clone()
	next.Profiles[i] = updated
	s.state = next
	s.writeBack()
	return nil
}

// SwitchProfile делает активным профиль с указанным id. Существование id
// не проверяется: чтение активного профиля само отрабатывает устаревший id.
func (s *Store) SwitchProfile(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()
	next.ActiveProfileID = id
	s.state = next
	s.writeBack()
}

// Merge вливает нормализованный профиль-кандидат: при совпадении username
// с существующим профилем тот перезаписывается целиком с сохранением
// исходного id, иначе кандидат добавляется с новым импортным id.
// Влитый профиль становится активным; возвращается его id.
func (s *Store) Merge(candidate model.UserProfile) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.Clone()

	for i, p := range next.Profiles {
		if p.Username == candidate.Username {
			// Идентичность профиля никогда не берётся из внешних данных.
			candidate.ID = p.ID
			next.Profiles[i] = candidate
			next.ActiveProfileID = p.ID
			s.state = next
			s.writeBack()
			return p.ID
		}
	}

	candidate.ID = model.NewImportID()
	next.Profiles = append(next.Profiles, candidate)
	next.ActiveProfileID = candidate.ID
	s.state = next
	s.writeBack()
	return candidate.ID
}

// writeBack сериализует текущий снимок и перезаписывает документ в хранилище;
// вызывается под мьютексом.
func (s *Store) writeBack() {
	document, err := json.Marshal(s.state)
	if err != nil {
		s.logger.Error("marshal state for write-back", zap.Error(err))
		return
	}
	if err := s.saver.Save(context.Background(), document); err != nil {
		s.logger.Error("state write-back failed", zap.Error(err))
	}
}
