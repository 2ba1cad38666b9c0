package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
)

// ErrAnalysisFailed is returned after all retry attempts are exhausted. The
// underlying cause is logged, not surfaced; callers show one generic failure.
var ErrAnalysisFailed = errors.New("analysis failed")

const maxAttempts = 3

// Client calls a Gemini-style generateContent endpoint and normalizes the
// model's verdict into a Judgement.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client

	// sleep is swapped out in tests to avoid real backoff waits.
	sleep func(time.Duration)
}

// NewClient creates a new analysis client.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		sleep: time.Sleep,
	}
}

// generateRequest is the wire format of the generateContent call.
type generateRequest struct {
	Contents          []content        `json:"contents"`
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type generationConfig struct {
	Temperature      float64 `json:"temperature"`
	ResponseMimeType string  `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// verdict is the JSON object the prompt instructs the model to emit.
type verdict struct {
	X    *float64 `json:"x"`
	Y    *float64 `json:"y"`
	XMin *float64 `json:"x_min"`
	XMax *float64 `json:"x_max"`
	YMin *float64 `json:"y_min"`
	YMax *float64 `json:"y_max"`
}

// Judge scores one scenario. It issues one POST per attempt, waiting 2^attempt
// seconds between failed attempts. Transport errors, non-2xx statuses and
// malformed payloads are retried alike; after the last attempt the caller gets
// ErrAnalysisFailed and nothing else.
func (c *Client) Judge(ctx context.Context, action, intent, mode string) (*models.Judgement, error) {
	reqBody := generateRequest{
		Contents: []content{
			{Role: "user", Parts: []part{{Text: buildJudgePrompt(action, intent, mode)}}},
		},
		SystemInstruction: &content{
			Parts: []part{{Text: judgeSystemPrompt}},
		},
		GenerationConfig: generationConfig{
			Temperature:      0.2,
			ResponseMimeType: "application/json",
		},
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			c.sleep(time.Duration(1<<uint(attempt-1)) * time.Second)
		}

		judgement, err := c.doAttempt(ctx, url, payload)
		if err == nil {
			return judgement, nil
		}
		lastErr = err
		log.Printf("Analysis attempt %d/%d failed: %v", attempt, maxAttempts, err)
	}

	return nil, fmt.Errorf("%w after %d attempts: %v", ErrAnalysisFailed, maxAttempts, lastErr)
}

// doAttempt performs a single request/parse cycle.
func (c *Client) doAttempt(ctx context.Context, url string, payload []byte) (*models.Judgement, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var genResp generateResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if genResp.Error != nil {
		return nil, fmt.Errorf("API error %d: %s", genResp.Error.Code, genResp.Error.Message)
	}
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no candidates returned")
	}

	var text strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		text.WriteString(p.Text)
	}

	return parseVerdict(text.String())
}

// parseVerdict extracts the coordinate JSON from the candidate text and
// normalizes it into the plot domain.
func parseVerdict(text string) (*models.Judgement, error) {
	raw := stripCodeFence(text)

	var v verdict
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("verdict is not valid JSON: %w", err)
	}
	if v.X == nil || v.Y == nil {
		return nil, fmt.Errorf("verdict missing x or y")
	}
	if math.IsNaN(*v.X) || math.IsNaN(*v.Y) {
		return nil, fmt.Errorf("verdict contains NaN coordinates")
	}

	j := &models.Judgement{
		X: clamp(*v.X),
		Y: clamp(*v.Y),
	}
	j.XMin, j.XMax = normalizeBounds(v.XMin, v.XMax, j.X)
	j.YMin, j.YMax = normalizeBounds(v.YMin, v.YMax, j.Y)
	return j, nil
}

// stripCodeFence removes a surrounding ```json fence if the model added one
// despite the JSON response MIME type.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normalizeBounds keeps a bound pair only when both ends are present and
// finite. Ends are clamped and reordered so min <= value <= max.
func normalizeBounds(min, max *float64, value float64) (*float64, *float64) {
	if min == nil || max == nil {
		return nil, nil
	}
	if math.IsNaN(*min) || math.IsNaN(*max) {
		return nil, nil
	}

	lo := clamp(math.Min(*min, *max))
	hi := clamp(math.Max(*min, *max))
	if lo > value {
		lo = value
	}
	if hi < value {
		hi = value
	}
	return &lo, &hi
}

// clamp confines v to the plot domain [-1, 1].
func clamp(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}
