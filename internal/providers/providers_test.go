package providers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weather-ensemble/config"
	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

func testLogger() *observe.Logger {
	return observe.NewZapLogger("providers-test", "test", io.Discard)
}

// fastBackoff keeps the retry layer out of test runtimes.
func fastBackoff() BackoffConfig {
	return BackoffConfig{MaxRetries: 0, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

type stubGeocoder struct {
	coords models.Coordinates
	err    error
}

func (s stubGeocoder) Lookup(ctx context.Context, location string) (models.Coordinates, error) {
	return s.coords, s.err
}

func berlinGeocoder() stubGeocoder {
	return stubGeocoder{coords: models.Coordinates{
		Name: "Berlin", Country: "Germany", CountryCode: "DE",
		Latitude: 52.52, Longitude: 13.41,
	}}
}

func TestOpenMeteoCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "ms", q.Get("wind_speed_unit"))
		assert.NotEmpty(t, q.Get("latitude"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"current":{
			"time":"2026-08-30T12:00",
			"temperature_2m":21.4,
			"relative_humidity_2m":55,
			"apparent_temperature":20.9,
			"surface_pressure":1013.2,
			"wind_speed_10m":3.5,
			"wind_direction_10m":180,
			"cloud_cover":40,
			"weather_code":2
		}}`)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), berlinGeocoder(), testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	reading, err := p.CurrentWeather(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "OpenMeteo", reading.Source)
	assert.Equal(t, 21.4, reading.TemperatureC)
	assert.Equal(t, CondPartlyCloudy, reading.Description)
	require.NotNil(t, reading.WindSpeedMS)
	assert.Equal(t, 3.5, *reading.WindSpeedMS)
	require.NotNil(t, reading.HumidityPct)
	assert.Equal(t, 55.0, *reading.HumidityPct)
	assert.Equal(t, time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC), reading.Timestamp)
	assert.NoError(t, reading.Validate())
}

func TestOpenMeteoSevenDayForecast(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "7", r.URL.Query().Get("forecast_days"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"daily":{
			"time":["2026-08-30","2026-08-31"],
			"temperature_2m_max":[24.0,22.1],
			"temperature_2m_min":[13.5,12.0],
			"weather_code":[61,0],
			"precipitation_sum":[4.2,0],
			"wind_speed_10m_max":[8.1,5.0]
		}}`)
	}))
	defer srv.Close()

	p := NewOpenMeteoProvider(srv.Client(), berlinGeocoder(), testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	points, err := p.SevenDayForecast(context.Background(), "Berlin")
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 24.0, points[0].TempMaxC)
	assert.Equal(t, 13.5, points[0].TempMinC)
	assert.Equal(t, CondLightRain, points[0].Description)
	assert.Equal(t, 61, points[0].WeatherCode)
	assert.Equal(t, 4.2, points[0].PrecipitationMm)
	assert.Equal(t, CondClearSky, points[1].Description)
	for _, pt := range points {
		assert.GreaterOrEqual(t, pt.TempMaxC, pt.TempMinC)
	}
}

func TestOpenMeteoGeocodeFailure(t *testing.T) {
	p := NewOpenMeteoProvider(http.DefaultClient, stubGeocoder{err: assert.AnError}, testLogger())
	p.httpCfg.Backoff = fastBackoff()

	_, err := p.CurrentWeather(context.Background(), "Nowhereville")
	require.Error(t, err)

	var srcErr *models.SourceUnavailableError
	require.ErrorAs(t, err, &srcErr)
	assert.Equal(t, "OpenMeteo", srcErr.Source)
}

func TestOpenWeatherMapCurrentWeather(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "metric", q.Get("units"))
		assert.Equal(t, "secret", q.Get("appid"))
		assert.Equal(t, "Berlin", q.Get("q"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"main":{"temp":18.2,"feels_like":17.8,"humidity":60,"pressure":1008},
			"wind":{"speed":4.2,"deg":90},
			"clouds":{"all":75},
			"weather":[{"id":500,"description":"light rain"}],
			"visibility":8000,
			"dt":1787000000
		}`)
	}))
	defer srv.Close()

	p := NewOpenWeatherMapProvider(srv.Client(), "secret", testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	reading, err := p.CurrentWeather(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "OpenWeatherMap", reading.Source)
	assert.Equal(t, 18.2, reading.TemperatureC)
	assert.Equal(t, CondLightRain, reading.Description)
	require.NotNil(t, reading.VisibilityKm)
	assert.Equal(t, 8.0, *reading.VisibilityKm)
	require.NotNil(t, reading.WindSpeedMS)
	assert.Equal(t, 4.2, *reading.WindSpeedMS)
}

func TestWeatherAPICurrentWeatherConvertsWind(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"current":{
			"last_updated_epoch":1787000000,
			"temp_c":19.0,
			"feelslike_c":18.5,
			"humidity":65,
			"pressure_mb":1012,
			"wind_kph":36,
			"wind_degree":270,
			"vis_km":10,
			"cloud":25,
			"uv":4,
			"condition":{"text":"Partly cloudy"}
		}}`)
	}))
	defer srv.Close()

	p := NewWeatherAPIProvider(srv.Client(), "secret", testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	reading, err := p.CurrentWeather(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "WeatherAPI", reading.Source)
	require.NotNil(t, reading.WindSpeedMS)
	assert.InDelta(t, 10.0, *reading.WindSpeedMS, 0.001) // 36 km/h
	assert.Equal(t, CondPartlyCloudy, reading.Description)
	assert.Equal(t, time.Unix(1787000000, 0).UTC(), reading.Timestamp)
}

func TestWttrCurrentWeatherParsesStrings(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"current_condition":[{
			"temp_C":"16",
			"FeelsLikeC":"15",
			"humidity":"70",
			"pressure":"1015",
			"windspeedKmph":"18",
			"winddirDegree":"200",
			"visibility":"10",
			"cloudcover":"100",
			"uvIndex":"3",
			"localObsDateTime":"2026-08-30 02:15 PM",
			"weatherDesc":[{"value":"Overcast"}]
		}]}`)
	}))
	defer srv.Close()

	p := NewWttrProvider(srv.Client(), testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	reading, err := p.CurrentWeather(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Wttr", reading.Source)
	assert.Equal(t, 16.0, reading.TemperatureC)
	assert.Equal(t, CondOvercast, reading.Description)
	require.NotNil(t, reading.WindSpeedMS)
	assert.InDelta(t, 5.0, *reading.WindSpeedMS, 0.001) // 18 km/h
	assert.Equal(t, time.Date(2026, 8, 30, 14, 15, 0, 0, time.UTC), reading.Timestamp)
}

func TestWttrForecastNotImplemented(t *testing.T) {
	p := NewWttrProvider(http.DefaultClient, testLogger())

	_, err := p.Forecast(context.Background(), "Berlin", 3)
	require.Error(t, err)
	assert.ErrorIs(t, err, models.ErrNotImplemented)
}

func TestWttrUnparseableTemperature(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"current_condition":[{"temp_C":"n/a"}]}`)
	}))
	defer srv.Close()

	p := NewWttrProvider(srv.Client(), testLogger())
	p.baseURL = srv.URL
	p.httpCfg.Backoff = fastBackoff()

	_, err := p.CurrentWeather(context.Background(), "Berlin")
	require.Error(t, err)

	var srcErr *models.SourceUnavailableError
	assert.ErrorAs(t, err, &srcErr)
}

func TestBuildSkipsProvidersWithoutKeys(t *testing.T) {
	apis := []config.WeatherAPIConfig{
		{Name: "openmeteo"},
		{Name: "openweathermap", APIKey: ""},
		{Name: "weatherapi", APIKey: "k"},
		{Name: "wttr"},
		{Name: "usnws"},
		{Name: "bogus"},
	}

	list := Build(apis, http.DefaultClient, berlinGeocoder(), testLogger())

	var names []string
	for _, p := range list {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"OpenMeteo", "WeatherAPI", "Wttr", "USNWS"}, names)
}

func TestBuildPreservesRegistrationOrder(t *testing.T) {
	apis := []config.WeatherAPIConfig{
		{Name: "wttr"},
		{Name: "openmeteo"},
	}

	list := Build(apis, http.DefaultClient, berlinGeocoder(), testLogger())

	require.Len(t, list, 2)
	assert.Equal(t, "Wttr", list[0].Name())
	assert.Equal(t, "OpenMeteo", list[1].Name())
}

func TestGeocoderLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Berlin", r.URL.Query().Get("name"))
		assert.Equal(t, "1", r.URL.Query().Get("count"))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"results":[{
			"name":"Berlin","latitude":52.52,"longitude":13.41,
			"country":"Germany","country_code":"DE"
		}]}`)
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.Client(), testLogger())
	g.baseURL = srv.URL
	g.httpCfg.Backoff = fastBackoff()

	coords, err := g.Lookup(context.Background(), "Berlin")
	require.NoError(t, err)

	assert.Equal(t, "Berlin", coords.Name)
	assert.Equal(t, "DE", coords.CountryCode)
	assert.Equal(t, 52.52, coords.Latitude)
	assert.Equal(t, 13.41, coords.Longitude)
}

func TestGeocoderNoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"results":[]}`)
	}))
	defer srv.Close()

	g := NewOpenMeteoGeocoder(srv.Client(), testLogger())
	g.baseURL = srv.URL
	g.httpCfg.Backoff = fastBackoff()

	_, err := g.Lookup(context.Background(), "Xyzzyville")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no geocoding match")
}
