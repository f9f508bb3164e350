// Package report renders the human-readable weather report. A pluggable
// backend produces the narrative when available; a deterministic template
// covers every failure mode, so rendering itself never returns an error.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

type Renderer struct {
	backend Backend
	l       *observe.Logger
}

// NewRenderer builds a renderer. backend may be nil; rendering then always
// takes the template path.
func NewRenderer(backend Backend, l *observe.Logger) *Renderer {
	return &Renderer{backend: backend, l: l}
}

// Generate renders the report for one set of readings. The backend narrative
// is preferred; any backend failure is logged and downgraded to the
// deterministic template. The ensemble summary is appended either way.
func (r *Renderer) Generate(
	ctx context.Context,
	readings []models.Reading,
	result models.EnsembleResult,
	location string,
	date time.Time,
) string {
	body := ""
	if r.backend != nil {
		narrative, err := r.backend.Generate(ctx, buildPrompt(readings, location, date))
		if err != nil {
			r.l.Warning("report backend unavailable, using template", map[string]any{
				"location": location,
				"error":    err.Error(),
			})
		} else {
			body = strings.TrimSpace(narrative)
		}
	}
	if body == "" {
		body = renderTemplate(readings, location, date)
	}

	return body + "\n\n" + renderEnsembleSummary(result)
}

func buildPrompt(readings []models.Reading, location string, date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a concise weather report for %s on %s based on these observations:\n",
		location, date.Format("2006-01-02"))
	for _, reading := range readings {
		fmt.Fprintf(&b, "- %s: %.1f°C, %s", reading.Source, reading.TemperatureC, reading.Description)
		if reading.WindSpeedMS != nil {
			fmt.Fprintf(&b, ", wind %.1f m/s", *reading.WindSpeedMS)
		}
		if reading.HumidityPct != nil {
			fmt.Fprintf(&b, ", humidity %.0f%%", *reading.HumidityPct)
		}
		b.WriteString("\n")
	}
	b.WriteString("Cover temperature, wind, humidity and overall conditions. ")
	b.WriteString("Close with practical recommendations. Plain text, no markdown.")
	return b.String()
}

// renderTemplate is the deterministic fallback: same readings, same text.
// Averages here are unweighted; the weighted view lives in the ensemble
// summary.
func renderTemplate(readings []models.Reading, location string, date time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weather report for %s, %s\n\n", location, date.Format("January 2, 2006"))

	if len(readings) == 0 {
		b.WriteString("No observations available.")
		return b.String()
	}

	var tempSum, windSum, humSum float64
	var windN, humN int
	for _, reading := range readings {
		tempSum += reading.TemperatureC
		if reading.WindSpeedMS != nil {
			windSum += *reading.WindSpeedMS
			windN++
		}
		if reading.HumidityPct != nil {
			humSum += *reading.HumidityPct
			humN++
		}
	}
	avgTemp := tempSum / float64(len(readings))

	fmt.Fprintf(&b, "Temperature: around %.1f°C.\n", avgTemp)
	if windN > 0 {
		fmt.Fprintf(&b, "Wind: averaging %.1f m/s.\n", windSum/float64(windN))
	}
	if humN > 0 {
		fmt.Fprintf(&b, "Humidity: about %.0f%%.\n", humSum/float64(humN))
	}
	fmt.Fprintf(&b, "Conditions: %s.\n", modalDescription(readings))

	sources := make([]string, 0, len(readings))
	for _, reading := range readings {
		sources = append(sources, reading.Source)
	}
	fmt.Fprintf(&b, "Sources: %s.\n\n", strings.Join(sources, ", "))

	b.WriteString("Recommendations:\n")
	for _, line := range templateAdvice(avgTemp, windSum, windN, humSum, humN) {
		fmt.Fprintf(&b, "- %s\n", line)
	}

	return strings.TrimRight(b.String(), "\n")
}

// modalDescription picks the most frequent description. Ties go to the
// description seen latest in reading order, which keeps the choice stable for
// a fixed input.
func modalDescription(readings []models.Reading) string {
	counts := make(map[string]int)
	lastSeen := make(map[string]int)
	for i, reading := range readings {
		if reading.Description == "" {
			continue
		}
		counts[reading.Description]++
		lastSeen[reading.Description] = i
	}
	if len(counts) == 0 {
		return "unknown"
	}

	best := ""
	for desc, n := range counts {
		if best == "" {
			best = desc
			continue
		}
		if n > counts[best] || (n == counts[best] && lastSeen[desc] > lastSeen[best]) {
			best = desc
		}
	}
	return best
}

func templateAdvice(avgTemp, windSum float64, windN int, humSum float64, humN int) []string {
	var lines []string
	if avgTemp > 25 {
		lines = append(lines, "Stay hydrated and avoid prolonged sun exposure.")
	}
	if avgTemp < 15 {
		lines = append(lines, "Dress warmly in layers.")
	}
	if windN > 0 && windSum/float64(windN) > 10 {
		lines = append(lines, "Expect noticeable wind; secure loose outdoor items.")
	}
	if humN > 0 && humSum/float64(humN) > 85 {
		lines = append(lines, "High humidity; plan for a muggy feel.")
	}
	if len(lines) == 0 {
		lines = append(lines, "Weather conditions are favorable.")
	}
	return lines
}

func renderEnsembleSummary(result models.EnsembleResult) string {
	var b strings.Builder
	b.WriteString("Ensemble summary:\n")
	fmt.Fprintf(&b, "- Temperature %.1f°C (range %.1f to %.1f°C)\n",
		result.AvgTempC, result.MinTempC, result.MaxTempC)
	fmt.Fprintf(&b, "- Trend: %s", result.Trend.Direction)
	if result.Trend.Direction != models.TrendStable {
		fmt.Fprintf(&b, " (%+.1f°C)", result.Trend.ChangeDegC)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "- Confidence: %d/100\n", result.Confidence)
	if result.Anomaly.IsAnomaly {
		fmt.Fprintf(&b, "- Source disagreement: %s\n", strings.Join(result.Anomaly.AbnormalSources, ", "))
	}
	for _, alert := range result.Alerts {
		fmt.Fprintf(&b, "- Alert: %s\n", alert)
	}
	return strings.TrimRight(b.String(), "\n")
}
