package http

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"weather-ensemble/internal/cache"
	"weather-ensemble/internal/models"
)

const dateLayout = "2006-01-02"

// sessionHeader drives last-request-wins: a request carrying the same value
// as one still in flight supersedes it.
const sessionHeader = "X-Session-ID"

type analyzeQuery struct {
	Location string `query:"location" validate:"required,min=1,max=128"`
	Date     string `query:"date" validate:"omitempty,datetime=2006-01-02"`
	Forecast bool   `query:"forecast"`
}

type locationQuery struct {
	Location string `query:"location" validate:"required,min=1,max=128"`
}

// AnalyzeWeather godoc
// @Summary Analyze current or forecast weather
// @Description Collects readings from every configured source, reconciles them and renders a report
// @Tags Weather
// @Produce json
// @Param location query string true "Free-text place name" example(Berlin)
// @Param date query string false "Target date, YYYY-MM-DD (defaults to today)"
// @Param forecast query boolean false "Use forecast data for the target date"
// @Param X-Session-ID header string false "Session ID for last-request-wins cancellation"
// @Success 200 {object} models.ReportResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse "No source had data for the location"
// @Router /api/v1/weather/analyze [get]
func (r *routes) handleAnalyze(c *fiber.Ctx) error {
	var q analyzeQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid query parameters"})
	}
	if err := r.validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	date := time.Now().UTC()
	if q.Date != "" {
		parsed, err := time.Parse(dateLayout, q.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "date must be YYYY-MM-DD"})
		}
		date = parsed
	}
	dateKey := date.Format(dateLayout)

	key := cache.AnalyzeKey(q.Location, dateKey, q.Forecast)
	if payload, ok := r.store.Get(key); ok {
		c.Set("Content-Type", "application/json")
		return c.Send(payload)
	}

	session := c.Get(sessionHeader)
	ctx := c.UserContext()

	text, err := r.service.AnalyzeWeather(ctx, session, q.Location, date, q.Forecast)
	if err != nil {
		var noData *models.NoDataAvailableError
		switch {
		case errors.As(err, &noData):
			return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: noData.Error()})
		case errors.Is(err, context.Canceled):
			// Superseded by a newer request for the same session.
			return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{Error: "request superseded by a newer one"})
		default:
			r.l.Error(err, map[string]any{"location": q.Location})
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "failed to analyze weather"})
		}
	}

	payload, err := json.Marshal(models.ReportResponse{Report: text})
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "failed to encode response"})
	}
	// A cancelled context means this result was superseded; never cache it.
	if ctx.Err() == nil {
		r.store.Set(key, payload)
	}

	c.Set("Content-Type", "application/json")
	return c.Send(payload)
}

// SevenDayForecast godoc
// @Summary 7-day daily forecast
// @Description Walks the daily-forecast provider chain; falls back to an estimated forecast
// @Tags Weather
// @Produce json
// @Param location query string true "Free-text place name" example(Berlin)
// @Success 200 {object} models.SevenDayForecast
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/weather/forecast/7day [get]
func (r *routes) handleSevenDay(c *fiber.Ctx) error {
	var q locationQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid query parameters"})
	}
	if err := r.validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	key := cache.Key("forecast7day", map[string]string{"location": q.Location})
	if payload, ok := r.store.Get(key); ok {
		c.Set("Content-Type", "application/json")
		return c.Send(payload)
	}

	forecast, err := r.service.SevenDayForecast(c.UserContext(), q.Location)
	if err != nil {
		r.l.Error(err, map[string]any{"location": q.Location})
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "failed to build forecast"})
	}

	payload, err := json.Marshal(forecast)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "failed to encode response"})
	}
	// Estimated data is synthetic filler; caching it would mask providers
	// coming back.
	if forecast.Source != models.ForecastEstimated {
		r.store.Set(key, payload)
	}

	c.Set("Content-Type", "application/json")
	return c.Send(payload)
}

// Coordinates godoc
// @Summary Resolve a place name to coordinates
// @Tags Geo
// @Produce json
// @Param location query string true "Free-text place name" example(Berlin)
// @Success 200 {object} models.Coordinates
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/v1/geo/coordinates [get]
func (r *routes) handleCoordinates(c *fiber.Ctx) error {
	var q locationQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: "invalid query parameters"})
	}
	if err := r.validate.Struct(q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: err.Error()})
	}

	coords, err := r.service.Coordinates(c.UserContext(), q.Location)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(models.ErrorResponse{Error: "location not found"})
	}

	return c.JSON(coords)
}
