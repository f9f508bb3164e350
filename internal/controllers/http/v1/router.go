package http

import (
	"context"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"

	"weather-ensemble/internal/cache"
	"weather-ensemble/internal/models"
	"weather-ensemble/pkg/observe"
)

// WeatherService is the orchestrator surface the HTTP layer depends on.
type WeatherService interface {
	AnalyzeWeather(ctx context.Context, session, location string, date time.Time, useForecast bool) (string, error)
	SevenDayForecast(ctx context.Context, location string) (models.SevenDayForecast, error)
	Coordinates(ctx context.Context, location string) (models.Coordinates, error)
}

type routes struct {
	service  WeatherService
	store    *cache.Cache
	validate *validator.Validate
	l        *observe.Logger
}

func NewRouter(
	app *fiber.App,
	service WeatherService,
	store *cache.Cache,
	l *observe.Logger,
) {
	r := &routes{
		service:  service,
		store:    store,
		validate: validator.New(),
		l:        l,
	}

	// Swagger documentation
	app.Get("/swagger/doc.json", func(c *fiber.Ctx) error {
		swaggerData, err := os.ReadFile("docs/swagger.json")
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "Failed to read Swagger documentation"})
		}

		c.Set("Content-Type", "application/json")
		return c.Send(swaggerData)
	})

	app.Get("/swagger/*", swagger.New(swagger.Config{
		URL:         "/swagger/doc.json",
		DeepLinking: true,
	}))

	// API routes
	api := app.Group("/api/v1")
	api.Get("/weather/analyze", r.handleAnalyze)
	api.Get("/weather/forecast/7day", r.handleSevenDay)
	api.Get("/geo/coordinates", r.handleCoordinates)
}
