// Package handler содержит HTTP-обработчики API сервиса sleepnexus.
// Слой тонкий: каждая ручка вызывает ровно одну операцию сервиса и
// транслирует её исход в HTTP-статус.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/nexussleep/sleepnexus-system/internal/model"
	"github.com/nexussleep/sleepnexus-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	State() model.GlobalState
	ActiveProfile() (model.UserProfile, bool)
	StartSleep() error
	WakeUp(ctx context.Context, rating *int) (model.SleepLog, error)
	Redeem(rewardID string) error
	UpdateRule(rule model.PointRule) error
	AddReward(r model.Reward) (model.Reward, error)
	RemoveReward(rewardID string) error
	RegisterUsername(username string) error
	SwitchProfile(id string)
	Import(payload []byte) (string, error)
	Export() ([]byte, error)
}

// Handler реализует HTTP-обработчики API сервиса sleepnexus.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: s,
		logger:  logger,
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// GetState возвращает снимок всего состояния.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.service.State())
}

// GetProfile возвращает активный профиль.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	p, ok := h.service.ActiveProfile()
	if !ok {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		return
	}
	h.writeJSON(w, p)
}

type registerRequest struct {
	Username string `json:"username"`
}

// Register присваивает имя профилю-заглушке.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.RegisterUsername(req.Username); err != nil {
		if errors.Is(err, service.ErrEmptyUsername) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		h.logger.Error("register username error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// StartSleep открывает сессию сна.
func (h *Handler) StartSleep(w http.ResponseWriter, r *http.Request) {
	if err := h.service.StartSleep(); err != nil {
		if errors.Is(err, service.ErrAlreadySleeping) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("start sleep error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

type wakeRequest struct {
	QualityRating *int `json:"qualityRating"`
}

// WakeUp завершает открытую сессию и возвращает созданную запись журнала.
func (h *Handler) WakeUp(w http.ResponseWriter, r *http.Request) {
	var req wakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	entry, err := h.service.WakeUp(r.Context(), req.QualityRating)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotSleeping):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		case errors.Is(err, service.ErrInvalidRating):
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("wake up error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		}
		return
	}

	h.writeJSON(w, entry)
}

// Redeem обменивает баллы на награду.
func (h *Handler) Redeem(w http.ResponseWriter, r *http.Request) {
	rewardID := chi.URLParam(r, "id")

	if err := h.service.Redeem(rewardID); err != nil {
		switch {
		case errors.Is(err, service.ErrRewardNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrInsufficientBalance):
			http.Error(w, http.StatusText(http.StatusPaymentRequired), http.StatusPaymentRequired)
		default:
			h.logger.Error("redeem error", zap.Error(err), zap.String("reward", rewardID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	w.WriteHeader(http.StatusOK)
}

type addRewardRequest struct {
	Name  string `json:"name"`
	Cost  int    `json:"cost"`
	Emoji string `json:"emoji"`
}

// AddReward добавляет награду в каталог активного профиля.
func (h *Handler) AddReward(w http.ResponseWriter, r *http.Request) {
	var req addRewardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	reward, err := h.service.AddReward(model.Reward{Name: req.Name, Cost: req.Cost, Emoji: req.Emoji})
	if err != nil {
		if errors.Is(err, service.ErrInvalidReward) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("add reward error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, reward)
}

// RemoveReward убирает награду из каталога.
func (h *Handler) RemoveReward(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RemoveReward(chi.URLParam(r, "id")); err != nil {
		h.logger.Error("remove reward error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// UpdateRule заменяет правило начисления баллов активного профиля.
func (h *Handler) UpdateRule(w http.ResponseWriter, r *http.Request) {
	var rule model.PointRule
	if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.UpdateRule(rule); err != nil {
		h.logger.Error("update rule error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// ActivateProfile делает активным профиль с указанным id.
func (h *Handler) ActivateProfile(w http.ResponseWriter, r *http.Request) {
	h.service.SwitchProfile(chi.URLParam(r, "id"))
	w.WriteHeader(http.StatusOK)
}

type importResponse struct {
	ActiveProfileID string `json:"activeProfileId"`
}

// Import принимает сериализованный профиль и вливает его в состояние.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	payload, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.Import(payload)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("import error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, importResponse{ActiveProfileID: id})
}

// Export отдаёт активный профиль в формате, пригодном для Import.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	data, err := h.service.Export()
	if err != nil {
		h.logger.Error("export error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(data); err != nil {
		h.logger.Error("write export response", zap.Error(err))
	}
}
