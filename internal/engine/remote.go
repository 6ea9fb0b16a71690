package engine

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/triagedesk/triagedesk/internal/domain/patient"
)

// RemoteScorer delegates scoring to an out-of-process ML service over HTTP.
// The call is bounded by the client timeout; any failure, non-200 response
// or malformed body is returned as an error so the engine can fall back to
// the deterministic strategy.
type RemoteScorer struct {
	url    string
	client *http.Client
}

func NewRemoteScorer(url string, timeout time.Duration) *RemoteScorer {
	return &RemoteScorer{
		url: url,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type remoteRequest struct {
	Age      int            `json:"age"`
	Gender   string         `json:"gender"`
	Symptoms []string       `json:"symptoms"`
	Vitals   patient.Vitals `json:"vitals"`
}

type remoteResponse struct {
	Score       *int   `json:"score"`
	Level       string `json:"level"`
	Explanation string `json:"explanation"`
	Error       string `json:"error"`
}

var validLevels = map[string]patient.Priority{
	string(patient.PriorityCritical):   patient.PriorityCritical,
	string(patient.PriorityUrgent):     patient.PriorityUrgent,
	string(patient.PrioritySemiUrgent): patient.PrioritySemiUrgent,
	string(patient.PriorityRoutine):    patient.PriorityRoutine,
}

func (s *RemoteScorer) Score(ctx context.Context, p *patient.Patient) (ScoreResult, error) {
	body, err := json.Marshal(remoteRequest{
		Age:      p.Age,
		Gender:   p.Gender,
		Symptoms: p.Symptoms,
		Vitals:   p.Vitals,
	})
	if err != nil {
		return ScoreResult{}, fmt.Errorf("marshal scorer request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return ScoreResult{}, fmt.Errorf("build scorer request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return ScoreResult{}, fmt.Errorf("call scorer: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ScoreResult{}, fmt.Errorf("scorer returned status %d", resp.StatusCode)
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ScoreResult{}, fmt.Errorf("decode scorer response: %w", err)
	}
	if out.Error != "" {
		return ScoreResult{}, fmt.Errorf("scorer error: %s", out.Error)
	}
	if out.Score == nil {
		return ScoreResult{}, fmt.Errorf("scorer response missing score")
	}
	class, ok := validLevels[out.Level]
	if !ok {
		return ScoreResult{}, fmt.Errorf("scorer returned unknown level %q", out.Level)
	}

	explanation := out.Explanation
	if explanation == "" {
		explanation = fmt.Sprintf("ML model prediction: %s (score %d)", out.Level, *out.Score)
	}

	return ScoreResult{
		Score:       *out.Score,
		Class:       class,
		Explanation: explanation,
	}, nil
}
