package points

import (
	"context"
	"time"

	"github.com/nexussleep/sleepnexus-system/internal/model"
)

// LocalCalculator реализует формулу по умолчанию, когда внешняя система
// расчёта не настроена: отход ко сну до полуночи приносит maxDailyPoints,
// отход после полуночи (до полудня) штрафуется на penaltyPoints.
type LocalCalculator struct{}

// NewLocalCalculator создаёт локальный калькулятор баллов.
func NewLocalCalculator() *LocalCalculator {
	return &LocalCalculator{}
}

// Calculate вычисляет баллы по времени отхода ко сну и длительность сессии.
func (c *LocalCalculator) Calculate(_ context.Context, startMillis, endMillis int64, rule model.PointRule) (int, int, error) {
	duration := int((endMillis - startMillis) / 60000)
	if duration < 0 {
		duration = 0
	}

	start := time.UnixMilli(startMillis)
	var pts int
	if start.Hour() < 12 {
		// Отход ко сну после полуночи считается поздним.
		pts = -rule.PenaltyPoints
	} else {
		pts = rule.MaxDailyPoints
	}

	return pts, duration, nil
}
