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

const openMeteoBaseURL = "https://api.open-meteo.com/v1/forecast"

// OpenMeteoProvider adapts the Open-Meteo forecast API. Open-Meteo only
// accepts coordinates, so every call geocodes the free-text location first.
// No API key required; weather codes come in the WMO space natively.
type OpenMeteoProvider struct {
	name    string
	baseURL string
	geo     Geocoder
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	l       *observe.Logger
}

func NewOpenMeteoProvider(client *http.Client, geo Geocoder, l *observe.Logger) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:    "OpenMeteo",
		baseURL: openMeteoBaseURL,
		geo:     geo,
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff()},
		circuit: newCircuit("openmeteo"),
		l:       l,
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoCurrent struct {
	Time               string  `json:"time"`
	Temperature2m      float64 `json:"temperature_2m"`
	RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	ApparentTemp       float64 `json:"apparent_temperature"`
	SurfacePressure    float64 `json:"surface_pressure"`
	WindSpeed10m       float64 `json:"wind_speed_10m"`
	WindDirection10m   float64 `json:"wind_direction_10m"`
	CloudCover         float64 `json:"cloud_cover"`
	WeatherCode        int     `json:"weather_code"`
}

type openMeteoHourly struct {
	Time               []string  `json:"time"`
	Temperature2m      []float64 `json:"temperature_2m"`
	RelativeHumidity2m []float64 `json:"relative_humidity_2m"`
	WindSpeed10m       []float64 `json:"wind_speed_10m"`
	WeatherCode        []int     `json:"weather_code"`
}

type openMeteoDaily struct {
	Time             []string  `json:"time"`
	Temperature2mMax []float64 `json:"temperature_2m_max"`
	Temperature2mMin []float64 `json:"temperature_2m_min"`
	WeatherCode      []int     `json:"weather_code"`
	PrecipitationSum []float64 `json:"precipitation_sum"`
	WindSpeed10mMax  []float64 `json:"wind_speed_10m_max"`
}

func (p *OpenMeteoProvider) CurrentWeather(ctx context.Context, location string) (models.Reading, error) {
	coords, err := p.geo.Lookup(ctx, location)
	if err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
		values.Set("current", "temperature_2m,relative_humidity_2m,apparent_temperature,surface_pressure,wind_speed_10m,wind_direction_10m,cloud_cover,weather_code")
		values.Set("wind_speed_unit", "ms")
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Current openMeteoCurrent `json:"current"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Reading{}, unavailable(p.name, err)
	}

	c := payload.Current
	return models.Reading{
		Source:           p.name,
		Timestamp:        parseOpenMeteoTime(c.Time),
		TemperatureC:     c.Temperature2m,
		FeelsLikeC:       models.Float(c.ApparentTemp),
		HumidityPct:      models.Float(c.RelativeHumidity2m),
		PressureHpa:      models.Float(c.SurfacePressure),
		WindSpeedMS:      models.Float(c.WindSpeed10m),
		WindDirectionDeg: models.Float(c.WindDirection10m),
		CloudsPct:        models.Float(c.CloudCover),
		Description:      ConditionFromWMO(c.WeatherCode),
	}, nil
}

// Forecast returns hourly readings at a 3-hour step covering the requested
// number of days.
func (p *OpenMeteoProvider) Forecast(ctx context.Context, location string, days int) ([]models.Reading, error) {
	coords, err := p.geo.Lookup(ctx, location)
	if err != nil {
		return nil, unavailable(p.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
		values.Set("hourly", "temperature_2m,relative_humidity_2m,wind_speed_10m,weather_code")
		values.Set("wind_speed_unit", "ms")
		values.Set("forecast_days", fmt.Sprintf("%d", days))
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Hourly openMeteoHourly `json:"hourly"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, err)
	}

	h := payload.Hourly
	n := len(h.Time)
	if len(h.Temperature2m) < n {
		n = len(h.Temperature2m)
	}
	if n == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no forecast data returned"))
	}

	readings := make([]models.Reading, 0, n/3+1)
	for i := 0; i < n; i += 3 {
		r := models.Reading{
			Source:       p.name,
			Timestamp:    parseOpenMeteoTime(h.Time[i]),
			TemperatureC: h.Temperature2m[i],
		}
		if i < len(h.RelativeHumidity2m) {
			r.HumidityPct = models.Float(h.RelativeHumidity2m[i])
		}
		if i < len(h.WindSpeed10m) {
			r.WindSpeedMS = models.Float(h.WindSpeed10m[i])
		}
		if i < len(h.WeatherCode) {
			r.Description = ConditionFromWMO(h.WeatherCode[i])
		}
		readings = append(readings, r)
	}

	return readings, nil
}

func (p *OpenMeteoProvider) SevenDayForecast(ctx context.Context, location string) ([]models.DailyForecastPoint, error) {
	coords, err := p.geo.Lookup(ctx, location)
	if err != nil {
		return nil, unavailable(p.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("latitude", fmt.Sprintf("%f", coords.Latitude))
		values.Set("longitude", fmt.Sprintf("%f", coords.Longitude))
		values.Set("daily", "temperature_2m_max,temperature_2m_min,weather_code,precipitation_sum,wind_speed_10m_max")
		values.Set("wind_speed_unit", "ms")
		values.Set("forecast_days", "7")
		values.Set("timezone", "UTC")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Daily openMeteoDaily `json:"daily"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, err)
	}

	d := payload.Daily
	n := len(d.Time)
	if len(d.Temperature2mMax) < n {
		n = len(d.Temperature2mMax)
	}
	if len(d.Temperature2mMin) < n {
		n = len(d.Temperature2mMin)
	}
	if n == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no daily forecast data returned"))
	}

	points := make([]models.DailyForecastPoint, 0, n)
	for i := 0; i < n; i++ {
		date, err := time.Parse("2006-01-02", d.Time[i])
		if err != nil {
			continue
		}
		pt := models.DailyForecastPoint{
			Date:     date,
			TempMaxC: d.Temperature2mMax[i],
			TempMinC: d.Temperature2mMin[i],
		}
		if i < len(d.WeatherCode) {
			pt.WeatherCode = d.WeatherCode[i]
			pt.Description = ConditionFromWMO(d.WeatherCode[i])
		}
		if i < len(d.PrecipitationSum) {
			pt.PrecipitationMm = d.PrecipitationSum[i]
		}
		if i < len(d.WindSpeed10mMax) {
			pt.WindMaxMS = d.WindSpeed10mMax[i]
		}
		points = append(points, pt)
	}

	return points, nil
}

// parseOpenMeteoTime handles Open-Meteo's minute-precision ISO timestamps.
func parseOpenMeteoTime(s string) time.Time {
	for _, layout := range []string{"2006-01-02T15:04", time.RFC3339} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Now().UTC()
}
