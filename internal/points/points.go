// Package points содержит коллабораторов формулы начисления баллов:
// локальный расчёт по умолчанию и клиент внешней системы расчёта.
// Для движка состояния формула непрозрачна: он получает готовые
// баллы и длительность сессии.
package points

import (
	"context"

	"github.com/nexussleep/sleepnexus-system/internal/model"
)

// Calculator вычисляет баллы и длительность завершённой сессии сна.
// Метки времени — миллисекунды эпохи.
type Calculator interface {
	Calculate(ctx context.Context, startMillis, endMillis int64, rule model.PointRule) (points int, durationMinutes int, err error)
}
