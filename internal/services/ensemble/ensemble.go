// Package ensemble reconciles validated readings from several providers into
// a single estimate: weighted averages, a temperature trend, standard
// deviation based outlier flags and a heuristic confidence score. It performs
// no I/O.
package ensemble

import (
	"math"
	"sort"

	"weather-ensemble/internal/models"
)

const (
	// Fixed margin added beyond the raw observed spread to express forecast
	// uncertainty.
	rangeMarginC = 2.0

	// Temperature must move more than this (°C, last minus first) before the
	// trend leaves "stable".
	trendThresholdC = 2.0

	// Readings further than this many standard deviations from the mean are
	// flagged anomalous.
	anomalySigma = 2.0

	maxDescriptions = 3
)

// Combine turns the accepted readings into one EnsembleResult. The caller
// guarantees every reading passed models.Reading.Validate; an empty slice
// yields the zero result.
func Combine(readings []models.Reading) models.EnsembleResult {
	if len(readings) == 0 {
		return models.EnsembleResult{Trend: models.Trend{Direction: models.TrendStable}}
	}

	res := models.EnsembleResult{
		AvgTempC:       weightedAvg(readings, func(r models.Reading) *float64 { t := r.TemperatureC; return &t }),
		AvgHumidity:    weightedAvg(readings, func(r models.Reading) *float64 { return r.HumidityPct }),
		AvgWindMS:      weightedAvg(readings, func(r models.Reading) *float64 { return r.WindSpeedMS }),
		AvgPressureHpa: weightedAvg(readings, func(r models.Reading) *float64 { return r.PressureHpa }),
		Descriptions:   collectDescriptions(readings),
	}

	minRaw, maxRaw := tempRange(readings)
	res.MinTempC = minRaw - rangeMarginC
	res.MaxTempC = maxRaw + rangeMarginC

	res.Trend = computeTrend(readings)
	res.Anomaly = detectAnomalies(readings)
	res.Confidence = confidenceScore(readings, minRaw, maxRaw)
	res.Recommendations, res.Alerts = advise(res.AvgTempC, res.AvgWindMS, res.AvgHumidity, res.Trend, res.Anomaly)

	return res
}

// weightedAvg averages the field selected by get across readings, each
// weighted by its source's reliability. Readings where the field is nil are
// excluded from both numerator and denominator.
func weightedAvg(readings []models.Reading, get func(models.Reading) *float64) float64 {
	var sum, weightSum float64
	for _, r := range readings {
		v := get(r)
		if v == nil {
			continue
		}
		w := SourceWeight(r.Source)
		sum += *v * w
		weightSum += w
	}
	if weightSum == 0 {
		return 0
	}
	return sum / weightSum
}

func tempRange(readings []models.Reading) (minT, maxT float64) {
	minT, maxT = readings[0].TemperatureC, readings[0].TemperatureC
	for _, r := range readings[1:] {
		if r.TemperatureC < minT {
			minT = r.TemperatureC
		}
		if r.TemperatureC > maxT {
			maxT = r.TemperatureC
		}
	}
	return minT, maxT
}

func collectDescriptions(readings []models.Reading) []string {
	seen := make(map[string]struct{}, len(readings))
	out := make([]string, 0, maxDescriptions)
	for _, r := range readings {
		if r.Description == "" {
			continue
		}
		if _, ok := seen[r.Description]; ok {
			continue
		}
		seen[r.Description] = struct{}{}
		out = append(out, r.Description)
		if len(out) == maxDescriptions {
			break
		}
	}
	return out
}

func computeTrend(readings []models.Reading) models.Trend {
	trend := models.Trend{Direction: models.TrendStable}
	if len(readings) < 2 {
		return trend
	}

	sorted := make([]models.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	first, last := sorted[0], sorted[len(sorted)-1]
	trend.ChangeDegC = last.TemperatureC - first.TemperatureC

	switch {
	case trend.ChangeDegC > trendThresholdC:
		trend.Direction = models.TrendRising
	case trend.ChangeDegC < -trendThresholdC:
		trend.Direction = models.TrendFalling
	}

	trend.HumidityChange = fieldDelta(sorted, func(r models.Reading) *float64 { return r.HumidityPct })
	trend.WindChange = fieldDelta(sorted, func(r models.Reading) *float64 { return r.WindSpeedMS })

	return trend
}

// fieldDelta is last-minus-first over the timestamp-sorted readings that
// actually carry the field; fewer than two such readings yield 0.
func fieldDelta(sorted []models.Reading, get func(models.Reading) *float64) float64 {
	var first, last *float64
	for _, r := range sorted {
		v := get(r)
		if v == nil {
			continue
		}
		if first == nil {
			first = v
		}
		last = v
	}
	if first == nil || last == nil || first == last {
		return 0
	}
	return *last - *first
}

func detectAnomalies(readings []models.Reading) models.Anomaly {
	n := float64(len(readings))

	var sum float64
	for _, r := range readings {
		sum += r.TemperatureC
	}
	mean := sum / n

	var sqSum float64
	for _, r := range readings {
		d := r.TemperatureC - mean
		sqSum += d * d
	}
	stdDev := math.Sqrt(sqSum / n) // population, not sample

	anomaly := models.Anomaly{Mean: mean, StdDev: stdDev}
	if stdDev == 0 {
		return anomaly
	}

	for _, r := range readings {
		if math.Abs(r.TemperatureC-mean) > anomalySigma*stdDev {
			anomaly.AbnormalSources = append(anomaly.AbnormalSources, r.Source)
		}
	}
	anomaly.IsAnomaly = len(anomaly.AbnormalSources) > 0

	return anomaly
}

// confidenceScore is a heuristic, not a statistical confidence interval:
// more sources, tighter agreement and physically plausible values each add to
// a 0-100 total.
func confidenceScore(readings []models.Reading, minRaw, maxRaw float64) int {
	sourceTerm := math.Min(float64(len(readings))*15, 45)

	spread := maxRaw - minRaw
	consistencyTerm := math.Max(0, 1-spread/20) * 30

	var qualitySum float64
	for _, r := range readings {
		qualitySum += qualityScore(r)
	}
	qualityTerm := qualitySum / float64(len(readings)) * 25

	score := int(math.Round(sourceTerm + consistencyTerm + qualityTerm))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// qualityScore rewards physically plausible field values, 0-1 per reading.
// Absent optional fields are excluded from the score rather than penalized.
func qualityScore(r models.Reading) float64 {
	checks, plausible := 1, 0
	if r.TemperatureC >= -50 && r.TemperatureC <= 60 {
		plausible++
	}
	if r.HumidityPct != nil {
		checks++
		if *r.HumidityPct >= 0 && *r.HumidityPct <= 100 {
			plausible++
		}
	}
	if r.PressureHpa != nil {
		checks++
		if *r.PressureHpa >= 900 && *r.PressureHpa <= 1100 {
			plausible++
		}
	}
	return float64(plausible) / float64(checks)
}
