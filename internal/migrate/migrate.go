// Package migrate приводит загруженный документ неизвестной формы
// к актуальной форме GlobalState.
package migrate

import (
	"encoding/json"

	"go.uber.org/zap"

	"github.com/nexussleep/sleepnexus-system/internal/model"
)

// Normalize разбирает сырой документ и возвращает GlobalState актуальной формы.
// Поддерживаются три случая: устаревший одиночный профиль (поле logs в корне
// без поля profiles), актуальный мультипрофильный документ и всё остальное.
// Ошибки разбора не фатальны: в худшем случае возвращается свежее состояние
// с одним профилем-заглушкой, а сбой уходит в журнал.
func Normalize(raw []byte, logger *zap.Logger) model.GlobalState {
	if len(raw) == 0 {
		return freshState()
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		logger.Warn("failed to parse persisted document, starting fresh", zap.Error(err))
		return freshState()
	}

	_, hasLogs := doc["logs"]
	_, hasProfiles := doc["profiles"]

	switch {
	case hasLogs && !hasProfiles:
		p := OverlayProfile(doc)
		if p.ID == "" {
			// Стабильный идентификатор делает повторную миграцию no-op.
			p.ID = model.LegacyUserID
		}
		return model.GlobalState{
			ActiveProfileID: p.ID,
			Profiles:        []model.UserProfile{p},
		}
	case hasProfiles:
		var gs model.GlobalState
		if err := json.Unmarshal(raw, &gs); err != nil {
			logger.Warn("failed to parse multi-profile document, starting fresh", zap.Error(err))
			return freshState()
		}
		if len(gs.Profiles) == 0 {
			logger.Warn("persisted document contains no profiles, starting fresh")
			return freshState()
		}
		return gs
	default:
		logger.Warn("unrecognized persisted document shape, starting fresh")
		return freshState()
	}
}

// legacyRule допускает устаревшее имя поля minDailyPoints.
type legacyRule struct {
	MaxDailyPoints *int `json:"maxDailyPoints"`
	PenaltyPoints  *int `json:"penaltyPoints"`
	MinDailyPoints *int `json:"minDailyPoints"`
}

// OverlayProfile накладывает присутствующие в документе поля на свежий профиль.
// Наложение выполняется по отдельным полям в типизированном виде: неизвестные поля отбрасываются,
// отсутствующие остаются со значениями по умолчанию. Правило начисления
// чинится с учётом устаревшего поля minDailyPoints.
func OverlayProfile(doc map[string]json.RawMessage) model.UserProfile {
	var username string
	if raw, ok := doc["username"]; ok {
		_ = json.Unmarshal(raw, &username)
	}

	p := model.NewProfile(username)

	if raw, ok := doc["id"]; ok {
		var id string
		if err := json.Unmarshal(raw, &id); err == nil && id != "" {
			p.ID = id
		} else {
			p.ID = ""
		}
	} else {
		p.ID = ""
	}
	if raw, ok := doc["userBalance"]; ok {
		_ = json.Unmarshal(raw, &p.UserBalance)
	}
	if raw, ok := doc["logs"]; ok {
		var logs []model.SleepLog
		if err := json.Unmarshal(raw, &logs); err == nil && logs != nil {
			p.Logs = logs
		}
	}
	if raw, ok := doc["rewards"]; ok {
		var rewards []model.Reward
		if err := json.Unmarshal(raw, &rewards); err == nil && rewards != nil {
			p.Rewards = rewards
		}
	}
	if raw, ok := doc["currentSleepStart"]; ok {
		_ = json.Unmarshal(raw, &p.CurrentSleepStart)
	}
	// Инвариант профиля: isSleeping эквивалентно наличию начала сессии.
	p.IsSleeping = p.CurrentSleepStart != nil

	if raw, ok := doc["pointRule"]; ok {
		var lr legacyRule
		if err := json.Unmarshal(raw, &lr); err == nil {
			rule := model.DefaultRule()
			if lr.MaxDailyPoints != nil {
				rule.MaxDailyPoints = *lr.MaxDailyPoints
			}
			switch {
			case lr.MinDailyPoints != nil:
				// Устаревшее поле авторитетно, даже рядом с penaltyPoints;
				// нулевое значение заменяется значением по умолчанию.
				if *lr.MinDailyPoints != 0 {
					rule.PenaltyPoints = *lr.MinDailyPoints
				}
			case lr.PenaltyPoints != nil:
				rule.PenaltyPoints = *lr.PenaltyPoints
			}
			p.PointRule = rule
		}
	}

	return p
}

func freshState() model.GlobalState {
	p := model.NewProfile("")
	return model.GlobalState{
		ActiveProfileID: p.ID,
		Profiles:        []model.UserProfile{p},
	}
}
