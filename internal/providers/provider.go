// Package providers contains one adapter per external weather source. Each
// adapter owns the full translation from its provider's schema and units into
// the normalized reading model; orchestration, retry-by-variant and
// aggregation live elsewhere.
package providers

import (
	"context"
	"net/http"

	"weather-ensemble/config"
	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

// Provider is a single external weather source. Operations a provider does
// not support return models.ErrNotImplemented wrapped in a
// SourceUnavailableError.
type Provider interface {
	Name() string
	CurrentWeather(ctx context.Context, location string) (models.Reading, error)
	Forecast(ctx context.Context, location string, days int) ([]models.Reading, error)
}

// DailyForecaster marks providers that can serve a 7-day daily forecast. The
// orchestrator picks fallback-chain links by this capability check instead of
// inspecting concrete types.
type DailyForecaster interface {
	Provider
	SevenDayForecast(ctx context.Context, location string) ([]models.DailyForecastPoint, error)
}

// Geocoder resolves a free-text location to coordinates for providers that
// only accept lat/lon.
type Geocoder interface {
	Lookup(ctx context.Context, location string) (models.Coordinates, error)
}

// unavailable wraps err as a per-source failure so nothing but the typed
// error crosses the adapter boundary.
func unavailable(source string, err error) error {
	return &models.SourceUnavailableError{Source: source, Err: err}
}

// Build constructs the adapter list from configuration, in registration
// order. A key-based provider with no key is skipped with a log line rather
// than failing startup.
func Build(apis []config.WeatherAPIConfig, client *http.Client, geo Geocoder, l *observe.Logger) []Provider {
	var list []Provider
	for _, api := range apis {
		switch api.Name {
		case "openmeteo":
			list = append(list, NewOpenMeteoProvider(client, geo, l))
		case "openweathermap":
			if api.APIKey == "" {
				l.Warning("skipping provider without API key", map[string]any{"provider": api.Name})
				continue
			}
			list = append(list, NewOpenWeatherMapProvider(client, api.APIKey, l))
		case "weatherapi":
			if api.APIKey == "" {
				l.Warning("skipping provider without API key", map[string]any{"provider": api.Name})
				continue
			}
			list = append(list, NewWeatherAPIProvider(client, api.APIKey, l))
		case "wttr":
			list = append(list, NewWttrProvider(client, l))
		case "usnws":
			list = append(list, NewUSNWSProvider(client, geo, l))
		default:
			l.Warning("unknown provider in config", map[string]any{"provider": api.Name})
		}
	}
	return list
}
