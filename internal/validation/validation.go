// Package validation содержит функции валидации входных данных.
package validation

import "encoding/json"

// HasRequiredProfileFields проверяет, что документ-кандидат на импорт
// содержит обязательные поля профиля: userBalance, logs и username.
func HasRequiredProfileFields(doc map[string]json.RawMessage) bool {
	for _, field := range []string{"userBalance", "logs", "username"} {
		if _, ok := doc[field]; !ok {
			return false
		}
	}
	return true
}

// IsValidQualityRating проверяет, что оценка качества сна лежит в диапазоне 1..5.
func IsValidQualityRating(rating int) bool {
	return rating >= 1 && rating <= 5
}
