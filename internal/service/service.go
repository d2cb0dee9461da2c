// Package service реализует операции над активным профилем и импорт профилей.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nexussleep/sleepnexus-system/internal/model"
	"github.com/nexussleep/sleepnexus-system/internal/points"
	"github.com/nexussleep/sleepnexus-system/internal/validation"
)

// ErrAlreadySleeping возвращается при попытке начать сессию во время открытой сессии.
var (
	ErrAlreadySleeping = errors.New("sleep session already started")
	// ErrNotSleeping возвращается при попытке завершить сессию, которая не была начата.
	ErrNotSleeping = errors.New("no open sleep session")
	// ErrRewardNotFound возвращается, если награда с указанным id отсутствует.
	ErrRewardNotFound = errors.New("reward not found")
	// ErrInsufficientBalance возвращается, когда баллов не хватает на награду.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrInvalidRating возвращается при оценке качества сна вне диапазона 1..5.
	ErrInvalidRating = errors.New("quality rating must be in range 1..5")
	// ErrInvalidReward возвращается для награды с отрицательной стоимостью.
	ErrInvalidReward = errors.New("reward cost must be non-negative")
	// ErrEmptyUsername возвращается при регистрации пустого имени.
	ErrEmptyUsername = errors.New("username must not be empty")
)

// Store описывает контракт хранителя состояния, используемый сервисом.
type Store interface {
	Snapshot() model.GlobalState
	Active() (model.UserProfile, bool)
	UpdateActiveProfile(update func(model.UserProfile) (model.UserProfile, error)) error
	SwitchProfile(id string)
	Merge(candidate model.UserProfile) string
}

// Service содержит бизнес-логику операций над профилями.
type Service struct {
	store Store
	calc  points.Calculator
	now   func() int64
}

// NewService создаёт сервис с указанным хранителем состояния и калькулятором баллов.
func NewService(store Store, calc points.Calculator) *Service {
	return &Service{
		store: store,
		calc:  calc,
		now: func() int64 {
			return time.Now().UnixMilli()
		},
	}
}

// State возвращает снимок всего состояния.
func (s *Service) State() model.GlobalState {
	return s.store.Snapshot()
}

// ActiveProfile возвращает копию активного профиля.
func (s *Service) ActiveProfile() (model.UserProfile, bool) {
	return s.store.Active()
}

// StartSleep открывает сессию сна. Повторный старт при открытой сессии
// отклоняется, а не затирает время начала молча.
func (s *Service) StartSleep() error {
	return s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		if p.IsSleeping {
			return p, ErrAlreadySleeping
		}
		start := s.now()
		p.IsSleeping = true
		p.CurrentSleepStart = &start
		return p, nil
	})
}

// WakeUp завершает открытую сессию: внешняя формула выдаёт баллы и
// длительность, баланс пополняется, в журнал добавляется запись.
// Пробуждение без открытой сессии отклоняется.
func (s *Service) WakeUp(ctx context.Context, rating *int) (model.SleepLog, error) {
	if rating != nil && !validation.IsValidQualityRating(*rating) {
		return model.SleepLog{}, ErrInvalidRating
	}

	active, ok := s.store.Active()
	if !ok || !active.IsSleeping || active.CurrentSleepStart == nil {
		return model.SleepLog{}, ErrNotSleeping
	}

	start := *active.CurrentSleepStart
	end := s.now()
	pts, duration, err := s.calc.Calculate(ctx, start, end, active.PointRule)
	if err != nil {
		return model.SleepLog{}, fmt.Errorf("calculate sleep points: %w", err)
	}

	var entry model.SleepLog
	err = s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		// Баллы посчитаны для конкретного момента начала; если за время
		// расчёта сессию успели закрыть и открыть заново, запись не делается.
		if !p.IsSleeping || p.CurrentSleepStart == nil || *p.CurrentSleepStart != start {
			return p, ErrNotSleeping
		}

		entry = model.SleepLog{
			ID:              model.NewID(),
			StartTime:       start,
			EndTime:         &end,
			DurationMinutes: duration,
			PointsEarned:    pts,
		}
		if rating != nil {
			r := *rating
			entry.QualityRating = &r
		}

		p.Logs = append(p.Logs, entry)
		p.UserBalance += pts
		p.IsSleeping = false
		p.CurrentSleepStart = nil
		return p, nil
	})
	if err != nil {
		return model.SleepLog{}, err
	}
	return entry, nil
}

// Redeem списывает стоимость награды с баланса и увеличивает счётчик обменов.
// Это единственное место, где проверяется достаточность баланса.
func (s *Service) Redeem(rewardID string) error {
	return s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		for i, r := range p.Rewards {
			if r.ID != rewardID {
				continue
			}
			if p.UserBalance < r.Cost {
				return p, ErrInsufficientBalance
			}
			p.UserBalance -= r.Cost
			p.Rewards[i].RedemptionCount++
			return p, nil
		}
		return p, ErrRewardNotFound
	})
}

// UpdateRule заменяет действующее правило начисления баллов.
func (s *Service) UpdateRule(rule model.PointRule) error {
	return s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		p.PointRule = rule
		return p, nil
	})
}

// AddReward добавляет награду в каталог активного профиля.
// Пустой id заменяется свежесгенерированным.
func (s *Service) AddReward(r model.Reward) (model.Reward, error) {
	if r.Cost < 0 {
		return model.Reward{}, ErrInvalidReward
	}
	if r.ID == "" {
		r.ID = model.NewID()
	}
	r.RedemptionCount = 0

	err := s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		p.Rewards = append(p.Rewards, r)
		return p, nil
	})
	if err != nil {
		return model.Reward{}, err
	}
	return r, nil
}

// RemoveReward убирает награду из каталога. Прошлые записи журнала и баланс
// при этом не трогаются; отсутствующий id не считается ошибкой.
func (s *Service) RemoveReward(rewardID string) error {
	return s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		kept := p.Rewards[:0]
		for _, r := range p.Rewards {
			if r.ID != rewardID {
				kept = append(kept, r)
			}
		}
		p.Rewards = kept
		return p, nil
	})
}

// RegisterUsername присваивает имя профилю-заглушке после первого запуска.
func (s *Service) RegisterUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return ErrEmptyUsername
	}
	return s.store.UpdateActiveProfile(func(p model.UserProfile) (model.UserProfile, error) {
		p.Username = username
		return p, nil
	})
}

// SwitchProfile делает активным профиль с указанным id.
func (s *Service) SwitchProfile(id string) {
	s.store.SwitchProfile(id)
}
