package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

const usnwsBaseURL = "https://api.weather.gov"

// USNWSProvider adapts the US National Weather Service API. The NWS only
// covers US territory and only accepts coordinates, so the free-text location
// is geocoded first and the forecast endpoint discovered through /points.
// There is no single current-observation call worth normalizing here, so only
// the 7-day daily forecast is supported.
type USNWSProvider struct {
	name    string
	baseURL string
	geo     Geocoder
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	l       *observe.Logger
}

func NewUSNWSProvider(client *http.Client, geo Geocoder, l *observe.Logger) *USNWSProvider {
	return &USNWSProvider{
		name:    "USNWS",
		baseURL: usnwsBaseURL,
		geo:     geo,
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff()},
		circuit: newCircuit("usnws"),
		l:       l,
	}
}

func (p *USNWSProvider) Name() string {
	return p.name
}

func (p *USNWSProvider) CurrentWeather(ctx context.Context, location string) (models.Reading, error) {
	return models.Reading{}, unavailable(p.name, models.ErrNotImplemented)
}

func (p *USNWSProvider) Forecast(ctx context.Context, location string, days int) ([]models.Reading, error) {
	return nil, unavailable(p.name, models.ErrNotImplemented)
}

type nwsPeriod struct {
	StartTime                  string  `json:"startTime"`
	IsDaytime                  bool    `json:"isDaytime"`
	Temperature                float64 `json:"temperature"`
	TemperatureUnit            string  `json:"temperatureUnit"`
	WindSpeed                  string  `json:"windSpeed"` // e.g. "10 to 15 mph"
	ShortForecast              string  `json:"shortForecast"`
	ProbabilityOfPrecipitation struct {
		Value *float64 `json:"value"`
	} `json:"probabilityOfPrecipitation"`
}

func (p *USNWSProvider) SevenDayForecast(ctx context.Context, location string) ([]models.DailyForecastPoint, error) {
	coords, err := p.geo.Lookup(ctx, location)
	if err != nil {
		return nil, unavailable(p.name, err)
	}

	forecastURL, err := p.discoverForecastURL(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		return nil, unavailable(p.name, err)
	}

	buildRequest := func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodGet, forecastURL, nil)
		if err != nil {
			return nil, err
		}
		// api.weather.gov rejects requests without an identifying agent.
		req.Header.Set("User-Agent", "weather-ensemble (contact: ops@weather-ensemble.local)")
		req.Header.Set("Accept", "application/geo+json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return nil, unavailable(p.name, err)
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Periods []nwsPeriod `json:"periods"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, unavailable(p.name, err)
	}

	points := collapseNWSPeriods(payload.Properties.Periods)
	if len(points) == 0 {
		return nil, unavailable(p.name, fmt.Errorf("no forecast periods returned"))
	}
	if len(points) > 7 {
		points = points[:7]
	}
	return points, nil
}

func (p *USNWSProvider) discoverForecastURL(ctx context.Context, lat, lon float64) (string, error) {
	buildRequest := func() (*http.Request, error) {
		u := fmt.Sprintf("%s/points/%.4f,%.4f", p.baseURL, lat, lon)
		req, err := http.NewRequest(http.MethodGet, u, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", "weather-ensemble (contact: ops@weather-ensemble.local)")
		req.Header.Set("Accept", "application/geo+json")
		return req, nil
	}

	resp, err := doRequestWithResilience(ctx, p.httpCfg, p.circuit, buildRequest)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var payload struct {
		Properties struct {
			Forecast string `json:"forecast"`
		} `json:"properties"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", err
	}
	if payload.Properties.Forecast == "" {
		return "", fmt.Errorf("no forecast endpoint for %.4f,%.4f (outside NWS coverage?)", lat, lon)
	}
	return payload.Properties.Forecast, nil
}

// collapseNWSPeriods folds the NWS day/night half-day periods into one point
// per calendar date: the daytime temperature becomes the max, the night one
// the min.
func collapseNWSPeriods(periods []nwsPeriod) []models.DailyForecastPoint {
	type dayAgg struct {
		point  models.DailyForecastPoint
		hasMax bool
		hasMin bool
	}

	var order []string
	byDate := make(map[string]*dayAgg)

	for _, period := range periods {
		start, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			continue
		}
		dateKey := start.Format("2006-01-02")

		agg, ok := byDate[dateKey]
		if !ok {
			agg = &dayAgg{point: models.DailyForecastPoint{
				Date:        time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC),
				WeatherCode: -1, // NWS does not publish WMO codes
			}}
			byDate[dateKey] = agg
			order = append(order, dateKey)
		}

		temp := period.Temperature
		if strings.EqualFold(period.TemperatureUnit, "F") {
			temp = fahrenheitToCelsius(temp)
		}

		if period.IsDaytime {
			agg.point.TempMaxC = temp
			agg.hasMax = true
			agg.point.Description = conditionFromText(period.ShortForecast)
		} else {
			agg.point.TempMinC = temp
			agg.hasMin = true
			if agg.point.Description == "" {
				agg.point.Description = conditionFromText(period.ShortForecast)
			}
		}

		if ws := parseNWSWindSpeed(period.WindSpeed); ws > agg.point.WindMaxMS {
			agg.point.WindMaxMS = ws
		}
		if v := period.ProbabilityOfPrecipitation.Value; v != nil && *v > agg.point.PrecipitationMm {
			// NWS gives precipitation probability, not depth; keep the raw
			// percentage as a rough severity signal.
			agg.point.PrecipitationMm = *v
		}
	}

	points := make([]models.DailyForecastPoint, 0, len(order))
	for _, key := range order {
		agg := byDate[key]
		if !agg.hasMax {
			agg.point.TempMaxC = agg.point.TempMinC
		}
		if !agg.hasMin {
			agg.point.TempMinC = agg.point.TempMaxC
		}
		if agg.point.TempMaxC < agg.point.TempMinC {
			agg.point.TempMaxC, agg.point.TempMinC = agg.point.TempMinC, agg.point.TempMaxC
		}
		points = append(points, agg.point)
	}
	return points
}

func fahrenheitToCelsius(f float64) float64 {
	return (f - 32) * 5 / 9
}

// parseNWSWindSpeed extracts the highest value from strings like
// "10 to 15 mph" and converts to m/s.
func parseNWSWindSpeed(s string) float64 {
	const mphToMS = 0.44704

	var maxMph float64
	for _, field := range strings.Fields(s) {
		if v, err := strconv.ParseFloat(field, 64); err == nil && v > maxMph {
			maxMph = v
		}
	}
	return maxMph * mphToMS
}
