// Package model содержит доменные сущности трекера сна sleepnexus.
package model

import (
	"math/rand/v2"
	"strconv"
	"time"
)

// SleepLog описывает одну завершённую сессию сна.
// Имена JSON-полей и миллисекундные метки времени совпадают с форматом
// документов, записанных прежними установками приложения.
type SleepLog struct {
	ID              string `json:"id"`
	StartTime       int64  `json:"startTime"`
	EndTime         *int64 `json:"endTime"`
	DurationMinutes int    `json:"durationMinutes"`
	PointsEarned    int    `json:"pointsEarned"`
	QualityRating   *int   `json:"qualityRating,omitempty"`
}

// Reward описывает награду, доступную для обмена на баллы.
type Reward struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Cost            int    `json:"cost"`
	Emoji           string `json:"emoji"`
	RedemptionCount int    `json:"redemptionCount"`
}

// PointRule задаёт действующее правило начисления баллов за сон.
type PointRule struct {
	MaxDailyPoints int `json:"maxDailyPoints"`
	PenaltyPoints  int `json:"penaltyPoints"`
}

// UserProfile агрегирует полное состояние одного пользователя.
// Инвариант: IsSleeping истинно тогда и только тогда, когда CurrentSleepStart не nil.
type UserProfile struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	UserBalance       int        `json:"userBalance"`
	Logs              []SleepLog `json:"logs"`
	Rewards           []Reward   `json:"rewards"`
	PointRule         PointRule  `json:"pointRule"`
	IsSleeping        bool       `json:"isSleeping"`
	CurrentSleepStart *int64     `json:"currentSleepStart"`
}

// GlobalState — корневой персистируемый документ: список профилей и активный профиль.
type GlobalState struct {
	ActiveProfileID string        `json:"activeProfileId"`
	Profiles        []UserProfile `json:"profiles"`
}

// LegacyUserID назначается профилю при миграции одиночного документа без id.
const LegacyUserID = "legacy_user"

// DefaultRule возвращает правило начисления баллов по умолчанию.
func DefaultRule() PointRule {
	return PointRule{
		MaxDailyPoints: 100,
		PenaltyPoints:  50,
	}
}

// DefaultRewards возвращает стартовый каталог наград нового профиля.
func DefaultRewards() []Reward {
	return []Reward{
		{ID: "1", Name: "能量飲料", Cost: 100, Emoji: "⚡"},
		{ID: "2", Name: "熬夜贖罪券", Cost: 500, Emoji: "🎫"},
		{ID: "3", Name: "賴床 10 分鐘", Cost: 50, Emoji: "⏰"},
		{ID: "4", Name: "購買新皮膚", Cost: 1000, Emoji: "🎨"},
	}
}

// NewProfile создаёт новый профиль с указанным именем и состоянием по умолчанию.
// Пустое имя допустимо: такой профиль считается заглушкой до регистрации.
func NewProfile(username string) UserProfile {
	return UserProfile{
		ID:        NewID(),
		Username:  username,
		Logs:      []SleepLog{},
		Rewards:   DefaultRewards(),
		PointRule: DefaultRule(),
	}
}

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewID генерирует идентификатор, устойчивый к коллизиям в пределах процесса:
// миллисекунды эпохи плюс случайный base36-суффикс.
func NewID() string {
	suffix := make([]byte, 9)
	for i := range suffix {
		suffix[i] = idAlphabet[rand.IntN(len(idAlphabet))]
	}
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + string(suffix)
}

// NewImportID генерирует идентификатор для профиля, добавленного через импорт.
// Суффикс позволяет отличить такие профили от созданных локально.
func NewImportID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "_imported"
}

// Clone возвращает глубокую копию профиля.
func (p UserProfile) Clone() UserProfile {
	c := p
	c.Logs = make([]SleepLog, len(p.Logs))
	copy(c.Logs, p.Logs)
	c.Rewards = make([]Reward, len(p.Rewards))
	copy(c.Rewards, p.Rewards)
	if p.CurrentSleepStart != nil {
		v := *p.CurrentSleepStart
		c.CurrentSleepStart = &v
	}
	for i := range c.Logs {
		if c.Logs[i].EndTime != nil {
			v := *c.Logs[i].EndTime
			c.Logs[i].EndTime = &v
		}
		if c.Logs[i].QualityRating != nil {
			v := *c.Logs[i].QualityRating
			c.Logs[i].QualityRating = &v
		}
	}
	return c
}

// Clone возвращает глубокую копию всего документа.
func (gs GlobalState) Clone() GlobalState {
	c := GlobalState{
		ActiveProfileID: gs.ActiveProfileID,
		Profiles:        make([]UserProfile, len(gs.Profiles)),
	}
	for i, p := range gs.Profiles {
		c.Profiles[i] = p.Clone()
	}
	return c
}
