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

const openWeatherMapBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherMapProvider adapts the OpenWeatherMap API (current weather and
// the 3-hourly forecast). Accepts free-text city queries directly. Metric
// units put wind in m/s already; visibility arrives in metres.
type OpenWeatherMapProvider struct {
	name    string
	baseURL string
	apiKey  string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	l       *observe.Logger
}

func NewOpenWeatherMapProvider(client *http.Client, apiKey string, l *observe.Logger) *OpenWeatherMapProvider {
	return &OpenWeatherMapProvider{
		name:    "OpenWeatherMap",
		baseURL: openWeatherMapBaseURL,
		apiKey:  apiKey,
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff()},
		circuit: newCircuit("openweathermap"),
		l:       l,
	}
}

func (p *OpenWeatherMapProvider) Name() string {
	return p.name
}

type owmConditions struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
		Pressure  float64 `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
	Weather []struct {
		ID          int    `json:"id"`
		Description string `json:"description"`
	} `json:"weather"`
	Visibility float64 `json:"visibility"` // metres
	Dt         int64   `json:"dt"`
}

func (c owmConditions) toReading(source string) models.Reading {
	r := models.Reading{
		Source:           source,
		Timestamp:        time.Unix(c.Dt, 0).UTC(),
		TemperatureC:     c.Main.Temp,
		FeelsLikeC:       models.Float(c.Main.FeelsLike),
		HumidityPct:      models.Float(c.Main.Humidity),
		PressureHpa:      models.Float(c.Main.Pressure),
		WindSpeedMS:      models.Float(c.Wind.Speed),
		WindDirectionDeg: models.Float(c.Wind.Deg),
		CloudsPct:        models.Float(c.Clouds.All),
		Description:      CondUnknown,
	}
	if c.Visibility > 0 {
		r.VisibilityKm = models.Float(c.Visibility / 1000)
	}
	if len(c.Weather) > 0 {
		r.Description = ConditionFromOWM(c.Weather[0].ID)
	}
	return r
}

func (p *OpenWeatherMapProvider) CurrentWeather(ctx context.Context, location string) (models.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", location)
		values.Set("units", "metric")
		values.Set("appid", p.apiKey)
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/weather?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload owmConditions
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}

	return payload.toReading(p.name), nil
}

func (p *OpenWeatherMapProvider) Forecast(ctx context.Context, location string, days int) ([]models.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", location)
		values.Set("units", "metric")
		values.Set("appid", p.apiKey)
		// The free tier serves 3-hourly entries, 8 per day.
		values.Set("cnt", fmt.Sprintf("%d", days*8))
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s/forecast?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		List []owmConditions `json:"list"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, err)
	}

	if len(payload.List) == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no forecast data returned"))
	}

	readings := make([]models.Reading, 0, len(payload.List))
	for _, item := range payload.List {
		readings = append(readings, item.toReading(p.name))
	}
	return readings, nil
}
