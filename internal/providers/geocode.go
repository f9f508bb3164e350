package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

const openMeteoGeocodingBaseURL = "https://geocoding-api.open-meteo.com/v1/search"

// OpenMeteoGeocoder resolves free-text place names through the Open-Meteo
// geocoding API. No API key required.
type OpenMeteoGeocoder struct {
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
	l       *observe.Logger
}

func NewOpenMeteoGeocoder(client *http.Client, l *observe.Logger) *OpenMeteoGeocoder {
	return &OpenMeteoGeocoder{
		baseURL: openMeteoGeocodingBaseURL,
		httpCfg: HTTPClientConfig{Client: client, Backoff: defaultBackoff()},
		circuit: newCircuit("openmeteo-geocoding"),
		l:       l,
	}
}

type geocodingResponse struct {
	Results []struct {
		Name        string  `json:"name"`
		Latitude    float64 `json:"latitude"`
		Longitude   float64 `json:"longitude"`
		Country     string  `json:"country"`
		CountryCode string  `json:"country_code"`
	} `json:"results"`
}

func (g *OpenMeteoGeocoder) Lookup(ctx context.Context, location string) (models.Coordinates, error) {
	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("name", location)
		values.Set("count", "1")
		values.Set("language", "en")
		values.Set("format", "json")
		return http.NewRequest(http.MethodGet, fmt.Sprintf("%s?%s", g.baseURL, values.Encode()), nil)
	}

	resp, err := doRequestWithResilience(ctx, g.httpCfg, g.circuit, buildRequest)
	if err != nil {
		return models.Coordinates{}, errors.Wrap(err, "geocoding request")
	}
	defer resp.Body.Close()

	var payload geocodingResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.Coordinates{}, errors.Wrap(err, "parse geocoding response")
	}

	if len(payload.Results) == 0 {
		return models.Coordinates{}, fmt.Errorf("no geocoding match for %q", location)
	}

	first := payload.Results[0]
	g.l.Debug("geocoded location", map[string]any{
		"location": location,
		"name":     first.Name,
		"lat":      first.Latitude,
		"lon":      first.Longitude,
	})

	return models.Coordinates{
		Name:        first.Name,
		Country:     first.Country,
		CountryCode: first.CountryCode,
		Latitude:    first.Latitude,
		Longitude:   first.Longitude,
	}, nil
}
