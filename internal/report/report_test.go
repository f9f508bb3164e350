package report

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

func testLogger() *observe.Logger {
	return observe.NewZapLogger("report-test", "test", io.Discard)
}

type stubBackend struct {
	response string
	err      error
}

func (s stubBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return s.response, s.err
}

func sampleReadings() []models.Reading {
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	return []models.Reading{
		{Source: "OpenMeteo", Timestamp: ts, TemperatureC: 20, Description: "partly cloudy",
			WindSpeedMS: models.Float(4), HumidityPct: models.Float(60)},
		{Source: "Wttr", Timestamp: ts, TemperatureC: 22, Description: "clear sky",
			WindSpeedMS: models.Float(6), HumidityPct: models.Float(50)},
	}
}

func sampleResult() models.EnsembleResult {
	return models.EnsembleResult{
		AvgTempC: 21, MinTempC: 18, MaxTempC: 24,
		Trend:      models.Trend{Direction: models.TrendStable},
		Confidence: 72,
	}
}

func TestGenerateUsesBackendNarrative(t *testing.T) {
	r := NewRenderer(stubBackend{response: "A mild day in Berlin."}, testLogger())

	out := r.Generate(context.Background(), sampleReadings(), sampleResult(), "Berlin", time.Now())

	assert.Contains(t, out, "A mild day in Berlin.")
	assert.Contains(t, out, "Ensemble summary:")
	assert.Contains(t, out, "Confidence: 72/100")
}

func TestGenerateFallsBackOnBackendError(t *testing.T) {
	r := NewRenderer(stubBackend{err: errors.New("connection refused")}, testLogger())
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	out := r.Generate(context.Background(), sampleReadings(), sampleResult(), "Berlin", date)

	assert.Contains(t, out, "Weather report for Berlin, August 30, 2026")
	assert.Contains(t, out, "around 21.0°C")
	assert.Contains(t, out, "Sources: OpenMeteo, Wttr.")
	assert.Contains(t, out, "Ensemble summary:")
}

func TestGenerateWithoutBackendIsDeterministic(t *testing.T) {
	r := NewRenderer(nil, testLogger())
	date := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first := r.Generate(context.Background(), sampleReadings(), sampleResult(), "Berlin", date)
	second := r.Generate(context.Background(), sampleReadings(), sampleResult(), "Berlin", date)

	assert.Equal(t, first, second)
}

func TestTemplateNoReadings(t *testing.T) {
	out := renderTemplate(nil, "Berlin", time.Now())
	assert.Contains(t, out, "No observations available.")
}

func TestTemplateAdviceRules(t *testing.T) {
	hot := []models.Reading{{Source: "OpenMeteo", TemperatureC: 30, Description: "clear sky"}}
	out := renderTemplate(hot, "Cairo", time.Now())
	assert.Contains(t, out, "Stay hydrated")

	calm := []models.Reading{{Source: "OpenMeteo", TemperatureC: 20, Description: "clear sky"}}
	out = renderTemplate(calm, "Berlin", time.Now())
	assert.Contains(t, out, "Weather conditions are favorable.")
}

func TestModalDescription(t *testing.T) {
	readings := []models.Reading{
		{Description: "rain"},
		{Description: "clear sky"},
		{Description: "rain"},
	}
	assert.Equal(t, "rain", modalDescription(readings))
}

func TestModalDescriptionTieGoesToLastSeen(t *testing.T) {
	readings := []models.Reading{
		{Description: "rain"},
		{Description: "clear sky"},
		{Description: "rain"},
		{Description: "clear sky"},
	}
	assert.Equal(t, "clear sky", modalDescription(readings))
}

func TestModalDescriptionEmpty(t *testing.T) {
	assert.Equal(t, "unknown", modalDescription([]models.Reading{{Description: ""}}))
}

func TestEnsembleSummaryIncludesAnomalyAndAlerts(t *testing.T) {
	result := sampleResult()
	result.Anomaly = models.Anomaly{IsAnomaly: true, AbnormalSources: []string{"Wttr"}}
	result.Alerts = []string{"High variance between sources"}
	result.Trend = models.Trend{Direction: models.TrendRising, ChangeDegC: 3.2}

	out := renderEnsembleSummary(result)

	assert.Contains(t, out, "Source disagreement: Wttr")
	assert.Contains(t, out, "Alert: High variance between sources")
	assert.Contains(t, out, "Trend: rising (+3.2°C)")
}

func TestHTTPBackendGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"stream":false`)
		assert.Contains(t, string(body), `"model":"llama3"`)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"response":"Sunny with light winds."}`)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "llama3", 5*time.Second)

	out, err := b.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Sunny with light winds.", out)
}

func TestHTTPBackendErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	b := NewHTTPBackend(srv.URL, "llama3", 5*time.Second)

	_, err := b.Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestBuildPromptListsSources(t *testing.T) {
	prompt := buildPrompt(sampleReadings(), "Berlin", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC))

	assert.True(t, strings.Contains(prompt, "Berlin"))
	assert.Contains(t, prompt, "OpenMeteo: 20.0°C, partly cloudy")
	assert.Contains(t, prompt, "2026-08-30")
}
