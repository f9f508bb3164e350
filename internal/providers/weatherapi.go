package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"

	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

const weatherAPIBaseURL = "https://api.weatherapi.com/v1"

// kmhToMS converts km/h wind speeds into SI m/s.
const kmhToMS = 1.0 / 3.6

// WeatherAPIProvider adapts weatherapi.com (current conditions and the hourly
// forecast). Accepts free-text queries; reports wind in km/h and conditions
// as text labels, both normalized here.
type WeatherAPIProvider struct {
	name    string
	baseURL string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	l       *observe.Logger
}

func NewWeatherAPIProvider(client *http.Client, apiKey string, l *observe.Logger) *WeatherAPIProvider {
	return &WeatherAPIProvider{
		name:    "WeatherAPI",
		baseURL: weatherAPIBaseURL,
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff()},
		circuit: newCircuit("weatherapi"),
		l:       l,
	}
}

func (p *WeatherAPIProvider) Name() string {
	return p.name
}

type weatherAPIHour struct {
	TimeEpoch  int64   `json:"time_epoch"`
	TempC      float64 `json:"temp_c"`
	FeelsLikeC float64 `json:"feelslike_c"`
	Humidity   float64 `json:"humidity"`
	PressureMb float64 `json:"pressure_mb"`
	WindKph    float64 `json:"wind_kph"`
	WindDegree float64 `json:"wind_degree"`
	VisKm      float64 `json:"vis_km"`
	Cloud      float64 `json:"cloud"`
	UV         float64 `json:"uv"`
	Condition  struct {
		Text string `json:"text"`
	} `json:"condition"`
}

func (h weatherAPIHour) toReading(source string) models.Reading {
	return models.Reading{
		Source:           source,
		Timestamp:        time.Unix(h.TimeEpoch, 0).UTC(),
		TemperatureC:     h.TempC,
		FeelsLikeC:       models.Float(h.FeelsLikeC),
		HumidityPct:      models.Float(h.Humidity),
		PressureHpa:      models.Float(h.PressureMb),
		WindSpeedMS:      models.Float(h.WindKph * kmhToMS),
		WindDirectionDeg: models.Float(h.WindDegree),
		VisibilityKm:     models.Float(h.VisKm),
		CloudsPct:        models.Float(h.Cloud),
		UVIndex:          models.Float(h.UV),
		Description:      conditionFromText(h.Condition.Text),
	}
}

func (p *WeatherAPIProvider) CurrentWeather(ctx context.Context, location string) (models.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", location)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/current.json?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Current struct {
			weatherAPIHour
			LastUpdatedEpoch int64 `json:"last_updated_epoch"`
		} `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}

	reading := payload.Current.toReading(p.name)
	if payload.Current.LastUpdatedEpoch > 0 {
		reading.Timestamp = time.Unix(payload.Current.LastUpdatedEpoch, 0).UTC()
	}
	return reading, nil
}

func (p *WeatherAPIProvider) Forecast(ctx context.Context, location string, days int) ([]models.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("key", p.apiKey)
		values.Set("q", location)
		values.Set("days", fmt.Sprintf("%d", days))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/forecast.json?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Forecast struct {
			ForecastDay []struct {
				Hour []weatherAPIHour `json:"hour"`
			} `json:"forecastday"`
		} `json:"forecast"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, err)
	}

	var readings []models.Reading
	for _, day := range payload.Forecast.ForecastDay {
		// 3-hour step keeps the volume in line with the other providers.
		for i := 0; i < len(day.Hour); i += 3 {
			readings = append(readings, day.Hour[i].toReading(p.name))
		}
	}

	if len(readings) == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no forecast data returned"))
	}
	return readings, nil
}
