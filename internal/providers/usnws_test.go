package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-ensemble/internal/models"
)

func TestUSNWSSevenDayForecast(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/geo+json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/points/"):
			fmt.Fprintf(w, `{"properties":{"forecast":"%s/gridpoints/OKX/33,35/forecast"}}`, srv.URL)
		case strings.Contains(r.URL.Path, "/forecast"):
			io.WriteString(w, `{"properties":{"periods":[
				{"startTime":"2026-08-30T06:00:00-04:00","isDaytime":true,"temperature":82,"temperatureUnit":"F","windSpeed":"10 to 15 mph","shortForecast":"Sunny","probabilityOfPrecipitation":{"value":null}},
				{"startTime":"2026-08-30T18:00:00-04:00","isDaytime":false,"temperature":64,"temperatureUnit":"F","windSpeed":"5 mph","shortForecast":"Mostly Clear","probabilityOfPrecipitation":{"value":10}},
				{"startTime":"2026-08-31T06:00:00-04:00","isDaytime":true,"temperature":75,"temperatureUnit":"F","windSpeed":"15 mph","shortForecast":"Rain Showers Likely","probabilityOfPrecipitation":{"value":70}},
				{"startTime":"2026-08-31T18:00:00-04:00","isDaytime":false,"temperature":60,"temperatureUnit":"F","windSpeed":"10 mph","shortForecast":"Showers","probabilityOfPrecipitation":{"value":50}}
			]}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	p := NewUSNWSProvider(srv.Client(), stubGeocoder{coords: models.Coordinates{
		Name: "New York", Country: "United States", CountryCode: "US",
		Latitude: 40.7128, Longitude: -74.0060,
	}}, testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	points, err := p.SevenDayForecast(context.Background(), "New York")
	require.NoError(t, err)
	require.Len(t, points, 2)

	// 82°F -> 27.8°C, 64°F -> 17.8°C
	assert.InDelta(t, 27.78, points[0].TempMaxC, 0.01)
	assert.InDelta(t, 17.78, points[0].TempMinC, 0.01)
	assert.Equal(t, CondClearSky, points[0].Description)
	assert.Equal(t, CondRainShowers, points[1].Description)
	// 15 mph -> 6.7 m/s
	assert.InDelta(t, 6.706, points[0].WindMaxMS, 0.01)
	for _, pt := range points {
		assert.GreaterOrEqual(t, pt.TempMaxC, pt.TempMinC)
	}
}

func TestUSNWSCurrentWeatherUnsupported(t *testing.T) {
	p := NewUSNWSProvider(http.DefaultClient, berlinGeocoder(), testLogger())

	_, err := p.CurrentWeather(context.Background(), "New York")
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotImplemented)

	_, err = p.Forecast(context.Background(), "New York", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotImplemented)
}

func TestUSNWSOutsideCoverage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"properties":{}}`)
	}))
	defer srv.Close()

	p := NewUSNWSProvider(srv.Client(), berlinGeocoder(), testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	_, err := p.SevenDayForecast(context.Background(), "Berlin")
	require.Error(t, err)

	var srcErr *models.SourceUnavailableError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "USNWS", srcErr.Source)
}

func TestCollapseNWSPeriodsMissingHalfDays(t *testing.T) {
	points := collapseNWSPeriods([]nwsPeriod{
		{StartTime: "2026-08-30T18:00:00Z", IsDaytime: false, Temperature: 10, TemperatureUnit: "C", ShortForecast: "Clear"},
	})
	require.Len(t, points, 1)
	assert.Equal(t, 10.0, points[0].TempMinC)
	assert.Equal(t, 10.0, points[0].TempMaxC)
	// The no-WMO-code marker must hold for night-only dates too; 0 would
	// read as "clear sky".
	assert.Equal(t, -1, points[0].WeatherCode)
}

func TestParseNWSWindSpeed(t *testing.T) {
	assert.InDelta(t, 6.706, parseNWSWindSpeed("10 to 15 mph"), 0.01)
	assert.InDelta(t, 2.235, parseNWSWindSpeed("5 mph"), 0.01)
	assert.Equal(t, 0.0, parseNWSWindSpeed(""))
}
