// Package weather orchestrates the provider adapters: it fans a request
// across every configured source, discards failures and invalid readings,
// and hands the surviving set to the ensemble engine and report renderer.
package weather

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"time"

	"weather-ensemble/internal/models"
	"weather-ensemble/internal/providers"
	"weather-ensemble/internal/report"
	"weather-ensemble/internal/services/ensemble"
	"weather-ensemble/pkg/observe"
)

type Service struct {
	providers []providers.Provider
	geo       providers.Geocoder
	renderer  *report.Renderer
	timeout   time.Duration
	l         *observe.Logger

	rngMu sync.Mutex
	rng   *rand.Rand

	sessMu   sync.Mutex
	inflight map[string]*sessionEntry
}

type sessionEntry struct {
	cancel context.CancelFunc
}

// NewService wires the orchestrator. list keeps registration order, which is
// also the order sources are queried and the order the forecast fallback
// chain walks. rng feeds the synthetic forecast generator; pass a seeded one
// for reproducible output.
func NewService(
	list []providers.Provider,
	geo providers.Geocoder,
	renderer *report.Renderer,
	providerTimeout time.Duration,
	rng *rand.Rand,
	l *observe.Logger,
) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		providers: list,
		geo:       geo,
		renderer:  renderer,
		timeout:   providerTimeout,
		l:         l,
		rng:       rng,
		inflight:  make(map[string]*sessionEntry),
	}
}

// CollectReadings queries every adapter in registration order. For each
// adapter the location variants are tried most specific first; the first
// variant that yields a valid reading wins and the rest are skipped. Adapter
// failures and invalid readings are logged and dropped. An empty result set
// is fatal for the request.
func (s *Service) CollectReadings(ctx context.Context, location string, date time.Time, useForecast bool) ([]models.Reading, error) {
	variants := locationVariants(location)

	var readings []models.Reading
	for _, p := range s.providers {
		reading, err := s.collectFromProvider(ctx, p, variants, date, useForecast)
		if err != nil {
			s.l.Warning("source skipped", map[string]any{
				"source":   p.Name(),
				"location": location,
				"error":    err.Error(),
			})
			continue
		}
		readings = append(readings, reading)
	}

	if len(readings) == 0 {
		// When the request itself was cancelled (superseded session,
		// client gone) every adapter fails with a wrapped context error;
		// that is not a bad location.
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &models.NoDataAvailableError{Location: location}
	}
	return readings, nil
}

func (s *Service) collectFromProvider(ctx context.Context, p providers.Provider, variants []string, date time.Time, useForecast bool) (models.Reading, error) {
	var lastErr error
	for _, variant := range variants {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		reading, err := s.fetchReading(callCtx, p, variant, date, useForecast)
		cancel()

		if err != nil {
			lastErr = err
			continue
		}
		if err := reading.Validate(); err != nil {
			lastErr = err
			continue
		}
		return reading, nil
	}
	if lastErr == nil {
		lastErr = &models.InvalidReadingError{Source: p.Name(), Reason: "no usable location"}
	}
	return models.Reading{}, lastErr
}

func (s *Service) fetchReading(ctx context.Context, p providers.Provider, location string, date time.Time, useForecast bool) (models.Reading, error) {
	if !useForecast {
		return p.CurrentWeather(ctx, location)
	}

	days := forecastHorizonDays(date, time.Now().UTC())
	readings, err := p.Forecast(ctx, location, days)
	if err != nil {
		return models.Reading{}, err
	}
	return closestToNoon(readings, date)
}

// forecastHorizonDays converts a target date into the day count requested
// from adapters, clamped to [1, 7].
func forecastHorizonDays(date, now time.Time) int {
	nowDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	targetDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)

	days := int(targetDay.Sub(nowDay).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	if days > 7 {
		days = 7
	}
	return days
}

// closestToNoon picks the forecast reading nearest midday of the target date,
// the most representative single point of a day.
func closestToNoon(readings []models.Reading, date time.Time) (models.Reading, error) {
	if len(readings) == 0 {
		return models.Reading{}, &models.InvalidReadingError{Reason: "empty forecast"}
	}

	noon := time.Date(date.Year(), date.Month(), date.Day(), 12, 0, 0, 0, time.UTC)
	best := readings[0]
	bestDist := math.Abs(best.Timestamp.Sub(noon).Hours())
	for _, r := range readings[1:] {
		if d := math.Abs(r.Timestamp.Sub(noon).Hours()); d < bestDist {
			best, bestDist = r, d
		}
	}
	return best, nil
}

// AnalyzeWeather runs the full pipeline for one request: collect, combine,
// render. A non-empty session ID makes the call last-request-wins: starting
// a new analysis for the same session cancels the one still in flight, and
// the superseded call returns the cancellation error so its result is never
// cached.
func (s *Service) AnalyzeWeather(ctx context.Context, session, location string, date time.Time, useForecast bool) (string, error) {
	if session != "" {
		var entry *sessionEntry
		ctx, entry = s.beginSession(ctx, session)
		defer s.endSession(session, entry)
	}

	readings, err := s.CollectReadings(ctx, location, date, useForecast)
	if err != nil {
		return "", err
	}

	result := ensemble.Combine(readings)
	text := s.renderer.Generate(ctx, readings, result, location, date)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

func (s *Service) beginSession(ctx context.Context, session string) (context.Context, *sessionEntry) {
	s.sessMu.Lock()
	defer s.sessMu.Unlock()

	if prev, ok := s.inflight[session]; ok {
		prev.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	entry := &sessionEntry{cancel: cancel}
	s.inflight[session] = entry
	return ctx, entry
}

func (s *Service) endSession(session string, entry *sessionEntry) {
	entry.cancel()

	s.sessMu.Lock()
	defer s.sessMu.Unlock()
	// Only remove the entry if it is still ours; a newer request for the
	// session may have replaced it already.
	if s.inflight[session] == entry {
		delete(s.inflight, session)
	}
}

// SevenDayForecast walks the daily-forecast chain: every adapter that can
// serve daily forecasts, in registration order, then the synthetic
// generator. The source tag tells callers what they got.
func (s *Service) SevenDayForecast(ctx context.Context, location string) (models.SevenDayForecast, error) {
	var chainIndex int
	for _, p := range s.providers {
		f, ok := p.(providers.DailyForecaster)
		if !ok {
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		points, err := f.SevenDayForecast(callCtx, location)
		cancel()

		if err != nil || len(points) == 0 {
			s.l.Warning("daily forecast link failed", map[string]any{
				"source":   p.Name(),
				"location": location,
			})
			chainIndex++
			continue
		}

		source := models.ForecastLive
		if chainIndex > 0 {
			source = models.ForecastFallback
		}
		return models.SevenDayForecast{Forecast: points, Source: source}, nil
	}

	s.l.Info("serving estimated forecast", map[string]any{"location": location})
	s.rngMu.Lock()
	points := syntheticForecast(s.rng, time.Now().UTC())
	s.rngMu.Unlock()

	return models.SevenDayForecast{Forecast: points, Source: models.ForecastEstimated}, nil
}

// Coordinates resolves a free-text place name.
func (s *Service) Coordinates(ctx context.Context, location string) (models.Coordinates, error) {
	return s.geo.Lookup(ctx, location)
}
