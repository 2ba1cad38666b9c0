package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
)

// newTestClient points a client at a fake endpoint with no real backoff waits.
func newTestClient(serverURL string) (*Client, *[]time.Duration) {
	c := NewClient(serverURL, "test-key", "test-model")
	slept := &[]time.Duration{}
	c.sleep = func(d time.Duration) {
		*slept = append(*slept, d)
	}
	return c, slept
}

func candidateBody(verdictJSON string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []map[string]interface{}{
			{
				"content": map[string]interface{}{
					"parts": []map[string]string{{"text": verdictJSON}},
				},
			},
		},
	})
	return string(b)
}

func TestJudge_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Error("Expected test-key in query")
		}

		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if _, ok := body["contents"]; !ok {
			t.Error("Expected contents in request body")
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, candidateBody(`{"x": 0.4, "y": -0.7, "y_min": -0.9, "y_max": -0.5, "x_min": 0.2, "x_max": 0.6}`))
	}))
	defer server.Close()

	client, slept := newTestClient(server.URL)

	j, err := client.Judge(context.Background(), "stole bread", "to feed a child", models.ModeDeontic)
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}

	if j.X != 0.4 || j.Y != -0.7 {
		t.Errorf("Unexpected coordinates: x=%v y=%v", j.X, j.Y)
	}
	if j.YMin == nil || *j.YMin != -0.9 || j.YMax == nil || *j.YMax != -0.5 {
		t.Errorf("Unexpected y bounds: %v %v", j.YMin, j.YMax)
	}
	if j.XMin == nil || *j.XMin != 0.2 || j.XMax == nil || *j.XMax != 0.6 {
		t.Errorf("Unexpected x bounds: %v %v", j.XMin, j.XMax)
	}
	if len(*slept) != 0 {
		t.Errorf("Expected no backoff on first-attempt success, got %v", *slept)
	}
}

func TestJudge_StripsCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody("```json\n{\"x\": 0.1, \"y\": 0.2}\n```"))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	j, err := client.Judge(context.Background(), "a", "b", models.ModeDeontic)
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if j.X != 0.1 || j.Y != 0.2 {
		t.Errorf("Unexpected coordinates: x=%v y=%v", j.X, j.Y)
	}
	if j.XMin != nil || j.YMin != nil {
		t.Error("Expected no bounds when the verdict omits them")
	}
}

func TestJudge_ClampsToPlotDomain(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(`{"x": 1.8, "y": -2.5, "y_min": -3.0, "y_max": -2.0}`))
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	j, err := client.Judge(context.Background(), "a", "b", models.ModeUtilitarian)
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if j.X != 1 || j.Y != -1 {
		t.Errorf("Expected clamped coordinates, got x=%v y=%v", j.X, j.Y)
	}
	if *j.YMin != -1 || *j.YMax != -1 {
		t.Errorf("Expected clamped bounds, got %v %v", *j.YMin, *j.YMax)
	}
}

func TestJudge_RetriesThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, candidateBody(`{"x": 0.0, "y": 0.5}`))
	}))
	defer server.Close()

	client, slept := newTestClient(server.URL)

	j, err := client.Judge(context.Background(), "a", "b", models.ModeDeontic)
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if j.Y != 0.5 {
		t.Errorf("Unexpected y: %v", j.Y)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}

	// Backoff doubles: 2s before attempt 2, 4s before attempt 3
	want := []time.Duration{2 * time.Second, 4 * time.Second}
	if len(*slept) != len(want) {
		t.Fatalf("Expected %d waits, got %v", len(want), *slept)
	}
	for i, d := range want {
		if (*slept)[i] != d {
			t.Errorf("Wait %d: expected %v, got %v", i, d, (*slept)[i])
		}
	}
}

func TestJudge_ExhaustedRetriesSurfaceOneError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	_, err := client.Judge(context.Background(), "a", "b", models.ModeDeontic)
	if err == nil {
		t.Fatal("Expected an error after exhausted retries")
	}
	if !errors.Is(err, ErrAnalysisFailed) {
		t.Errorf("Expected ErrAnalysisFailed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected exactly 3 attempts, got %d", attempts)
	}
}

func TestJudge_MalformedPayloadIsRetried(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		switch attempts {
		case 1:
			fmt.Fprint(w, "not json at all")
		case 2:
			// Valid envelope, but the verdict is missing y
			fmt.Fprint(w, candidateBody(`{"x": 0.3}`))
		default:
			fmt.Fprint(w, candidateBody(`{"x": 0.3, "y": 0.6}`))
		}
	}))
	defer server.Close()

	client, _ := newTestClient(server.URL)

	j, err := client.Judge(context.Background(), "a", "b", models.ModeDeontic)
	if err != nil {
		t.Fatalf("Judge failed: %v", err)
	}
	if j.X != 0.3 || j.Y != 0.6 {
		t.Errorf("Unexpected coordinates: x=%v y=%v", j.X, j.Y)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}
}

func TestNormalizeBounds(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	// One end missing drops the pair
	lo, hi := normalizeBounds(f(0.1), nil, 0.2)
	if lo != nil || hi != nil {
		t.Error("Expected nil bounds when one end is missing")
	}

	// Reversed ends are reordered
	lo, hi = normalizeBounds(f(0.8), f(0.2), 0.5)
	if *lo != 0.2 || *hi != 0.8 {
		t.Errorf("Expected reordered bounds, got %v %v", *lo, *hi)
	}

	// Bounds are widened to contain the value
	lo, hi = normalizeBounds(f(0.4), f(0.6), 0.3)
	if *lo != 0.3 {
		t.Errorf("Expected lower bound stretched to value, got %v", *lo)
	}
}
