// Package scheduler keeps the cache warm: a periodic job re-runs the analyze
// pipeline for every configured location so popular requests are served from
// cache instead of a provider fan-out.
package scheduler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-co-op/gocron"

	"weather-ensemble/internal/cache"
	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

// Analyzer is the slice of the orchestrator the refresh job needs.
type Analyzer interface {
	AnalyzeWeather(ctx context.Context, session, location string, date time.Time, useForecast bool) (string, error)
}

type Scheduler struct {
	cron      *gocron.Scheduler
	svc       Analyzer
	store     *cache.Cache
	locations []string
	timeout   time.Duration
	l         *observe.Logger
}

func New(svc Analyzer, store *cache.Cache, locations []string, refreshTimeout time.Duration, l *observe.Logger) *Scheduler {
	return &Scheduler{
		cron:      gocron.NewScheduler(time.UTC),
		svc:       svc,
		store:     store,
		locations: locations,
		timeout:   refreshTimeout,
		l:         l,
	}
}

// Start schedules the refresh every interval and runs the scheduler in the
// background. No-op when no locations are configured.
func (s *Scheduler) Start(interval time.Duration) error {
	if len(s.locations) == 0 {
		s.l.Info("no warm-refresh locations configured", nil)
		return nil
	}

	if _, err := s.cron.Every(interval).Do(s.refreshAll); err != nil {
		return err
	}
	s.cron.StartAsync()
	return nil
}

func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) refreshAll() {
	for _, location := range s.locations {
		s.refresh(location)
	}
}

func (s *Scheduler) refresh(location string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	now := time.Now().UTC()
	text, err := s.svc.AnalyzeWeather(ctx, "", location, now, false)
	if err != nil {
		s.l.Warning("warm refresh failed", map[string]any{
			"location": location,
			"error":    err.Error(),
		})
		return
	}

	payload, err := json.Marshal(models.ReportResponse{Report: text})
	if err != nil {
		return
	}
	s.store.Set(cache.AnalyzeKey(location, now.Format("2006-01-02"), false), payload)
	s.l.Debug("warm refresh stored", map[string]any{"location": location})
}
