package points

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/nexussleep/sleepnexus-system/internal/model"
)

// Client инкапсулирует HTTP-взаимодействие с внешней системой расчёта баллов.
type Client struct {
	baseURL    string
	httpClient *retryablehttp.Client
}

type calculateRequest struct {
	StartTime int64           `json:"startTime"`
	EndTime   int64           `json:"endTime"`
	PointRule model.PointRule `json:"pointRule"`
}

type calculateResponse struct {
	Points          int `json:"points"`
	DurationMinutes int `json:"durationMinutes"`
}

// NewClient создаёт HTTP-клиент системы расчёта баллов по указанному адресу.
// Повторные попытки при сетевых сбоях и ответах 429/5xx выполняет транспорт.
func NewClient(baseURL string) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 5 * time.Second
	rc.Logger = nil

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: rc,
	}
}

// Calculate запрашивает у внешней системы баллы и длительность сессии сна.
func (c *Client) Calculate(ctx context.Context, startMillis, endMillis int64, rule model.PointRule) (int, int, error) {
	if c == nil || c.baseURL == "" {
		return 0, 0, fmt.Errorf("points client not configured")
	}

	base := c.baseURL
	if !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}

	body, err := json.Marshal(calculateRequest{
		StartTime: startMillis,
		EndTime:   endMillis,
		PointRule: rule,
	})
	if err != nil {
		return 0, 0, fmt.Errorf("marshal request: %w", err)
	}

	url := base + "/api/points/calculate"

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var result calculateResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, 0, fmt.Errorf("decode response: %w", err)
	}

	if result.DurationMinutes < 0 {
		return 0, 0, fmt.Errorf("negative duration in response: %d", result.DurationMinutes)
	}

	return result.Points, result.DurationMinutes, nil
}
