package models

import (
	"fmt"
	"math"
	"time"
)

// Temperature bounds for a physically valid reading, in °C. The extremes are
// slightly wider than any value ever observed on Earth; anything outside them
// is a provider bug, not weather.
const (
	MinValidTempC = -90.0
	MaxValidTempC = 60.0
)

// Reading is one provider's normalized snapshot of conditions at a place and
// time. Only Source, Timestamp, TemperatureC and Description are guaranteed;
// the pointer fields are nil when the provider does not report them.
type Reading struct {
	Source           string    `json:"source" example:"OpenMeteo"`
	Timestamp        time.Time `json:"timestamp"`
	TemperatureC     float64   `json:"temperature_c" example:"21.4"`
	FeelsLikeC       *float64  `json:"feels_like_c,omitempty"`
	HumidityPct      *float64  `json:"humidity_pct,omitempty"`
	PressureHpa      *float64  `json:"pressure_hpa,omitempty"`
	WindSpeedMS      *float64  `json:"wind_speed_ms,omitempty"`
	WindDirectionDeg *float64  `json:"wind_direction_deg,omitempty"`
	Description      string    `json:"description" example:"partly cloudy"`
	VisibilityKm     *float64  `json:"visibility_km,omitempty"`
	CloudsPct        *float64  `json:"clouds_pct,omitempty"`
	UVIndex          *float64  `json:"uv_index,omitempty"`
}

// Validate reports whether the reading is usable for aggregation. A reading
// failing this check is discarded by the orchestrator and never reaches the
// ensemble engine.
func (r Reading) Validate() error {
	if math.IsNaN(r.TemperatureC) || math.IsInf(r.TemperatureC, 0) {
		return &InvalidReadingError{Source: r.Source, Reason: "temperature is not a finite number"}
	}
	if r.TemperatureC < MinValidTempC || r.TemperatureC > MaxValidTempC {
		return &InvalidReadingError{
			Source: r.Source,
			Reason: fmt.Sprintf("temperature %.1f°C outside [%.0f, %.0f]", r.TemperatureC, MinValidTempC, MaxValidTempC),
		}
	}
	return nil
}

// DailyForecastPoint is one calendar day's aggregate for the 7-day view.
type DailyForecastPoint struct {
	Date            time.Time `json:"date"`
	TempMaxC        float64   `json:"temp_max_c" example:"24.0"`
	TempMinC        float64   `json:"temp_min_c" example:"13.5"`
	Description     string    `json:"description" example:"light rain"`
	WeatherCode     int       `json:"weather_code" example:"61"`
	PrecipitationMm float64   `json:"precipitation_mm"`
	WindMaxMS       float64   `json:"wind_max_ms"`
}

// ForecastSource tags where a 7-day forecast came from so callers can tell
// real data from filler.
type ForecastSource string

const (
	ForecastLive      ForecastSource = "live"
	ForecastFallback  ForecastSource = "fallback"
	ForecastEstimated ForecastSource = "estimated"
)

// SevenDayForecast bundles the daily points with their provenance.
type SevenDayForecast struct {
	Forecast []DailyForecastPoint `json:"forecast"`
	Source   ForecastSource       `json:"source" example:"live"`
}

// Coordinates is a resolved geographic location.
type Coordinates struct {
	Name        string  `json:"name" example:"Berlin"`
	Country     string  `json:"country" example:"Germany"`
	CountryCode string  `json:"country_code" example:"DE"`
	Latitude    float64 `json:"latitude" example:"52.52"`
	Longitude   float64 `json:"longitude" example:"13.41"`
}

// Float returns a pointer to v. Convenience for building readings with
// optional fields.
func Float(v float64) *float64 {
	return &v
}
