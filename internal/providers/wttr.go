package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

const wttrBaseURL = "https://wttr.in"

// WttrProvider adapts wttr.in's JSON endpoint. No API key; every field
// arrives as a string and must be parsed. Current conditions only; forecast
// operations are not supported.
type WttrProvider struct {
	name    string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	l       *observe.Logger
}

func NewWttrProvider(client *http.Client, l *observe.Logger) *WttrProvider {
	return &WttrProvider{
		name:    "Wttr",
		baseURL: wttrBaseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff()},
		circuit: newCircuit("wttr"),
		l:       l,
	}
}

func (p *WttrProvider) Name() string {
	return p.name
}

type wttrCurrentCondition struct {
	TempC         string `json:"temp_C"`
	FeelsLikeC    string `json:"FeelsLikeC"`
	Humidity      string `json:"humidity"`
	Pressure      string `json:"pressure"`
	WindspeedKmph string `json:"windspeedKmph"`
	WinddirDegree string `json:"winddirDegree"`
	Visibility    string `json:"visibility"`
	Cloudcover    string `json:"cloudcover"`
	UVIndex       string `json:"uvIndex"`
	LocalObsTime  string `json:"localObsDateTime"`
	WeatherDesc   []struct {
		Value string `json:"value"`
	} `json:"weatherDesc"`
}

func (p *WttrProvider) CurrentWeather(ctx context.Context, location string) (models.Reading, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/%s?format=j1", p.baseURL, url.PathEscape(location))
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		CurrentCondition []wttrCurrentCondition `json:"current_condition"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}

	if len(payload.CurrentCondition) == 0 {
		return models.Reading{}, unavailable(p.name, fmt.Errorf("no current conditions returned"))
	}
	c := payload.CurrentCondition[0]

	temp, err := strconv.ParseFloat(c.TempC, 64)
	if err != nil {
		return models.Reading{}, unavailable(p.name, fmt.Errorf("unparseable temperature %q", c.TempC))
	}

	reading := models.Reading{
		Source:       p.name,
		Timestamp:    parseWttrTime(c.LocalObsTime),
		TemperatureC: temp,
		Description:  CondUnknown,
	}
	if len(c.WeatherDesc) > 0 {
		reading.Description = conditionFromText(c.WeatherDesc[0].Value)
	}
	if v, err := strconv.ParseFloat(c.FeelsLikeC, 64); err == nil {
		reading.FeelsLikeC = models.Float(v)
	}
	if v, err := strconv.ParseFloat(c.Humidity, 64); err == nil {
		reading.HumidityPct = models.Float(v)
	}
	if v, err := strconv.ParseFloat(c.Pressure, 64); err == nil {
		reading.PressureHpa = models.Float(v)
	}
	if v, err := strconv.ParseFloat(c.WindspeedKmph, 64); err == nil {
		reading.WindSpeedMS = models.Float(v * kmhToMS)
	}
	if v, err := strconv.ParseFloat(c.WinddirDegree, 64); err == nil {
		reading.WindDirectionDeg = models.Float(v)
	}
	if v, err := strconv.ParseFloat(c.Visibility, 64); err == nil {
		reading.VisibilityKm = models.Float(v)
	}
	if v, err := strconv.ParseFloat(c.Cloudcover, 64); err == nil {
		reading.CloudsPct = models.Float(v)
	}
	if v, err := strconv.ParseFloat(c.UVIndex, 64); err == nil {
		reading.UVIndex = models.Float(v)
	}

	return reading, nil
}

func (p *WttrProvider) Forecast(ctx context.Context, location string, days int) ([]models.Reading, error) {
	return nil, unavailable(p.name, models.ErrNotImplemented)
}

// parseWttrTime handles wttr.in's "2026-08-30 10:15 AM" observation stamps.
func parseWttrTime(s string) time.Time {
	if ts, err := time.Parse("2006-01-02 03:04 PM", s); err == nil {
		return ts.UTC()
	}
	return time.Now().UTC()
}
