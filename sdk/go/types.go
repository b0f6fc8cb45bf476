package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// GenerateRequest mirrors the /generate-game body. A nil IsTimed lets the
// server default to a timed game.
type GenerateRequest struct {
	Prompt     string `json:"prompt"`
	Difficulty string `json:"difficulty,omitempty"`
	IsTimed    *bool  `json:"is_timed,omitempty"`
}

// GameResult locates a generated or published page.
type GameResult struct {
	GameURL string `json:"game_url"`
	GameID  string `json:"game_id"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string         `json:"status"`
	Checks map[string]any `json:"checks"`
}

// APIError is the server's error envelope plus the HTTP status.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed: status %d", e.Status)
	}
	return fmt.Sprintf("request failed: status %d: %s", e.Status, e.Message)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(body, apiErr)
	return apiErr
}

func decodeJSON(resp *http.Response, target any) error {
	if err := checkStatus(resp); err != nil {
		return err
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

var (
	// ErrEmptyGameID is returned when game id is empty.
	ErrEmptyGameID = errors.New("game id is required")
	// ErrEmptyPrompt is returned when a generation prompt is blank.
	ErrEmptyPrompt = errors.New("prompt is required")
)
