package weather

import (
	"math/rand"
	"time"

	"weather-ensemble/internal/models"
	"weather-ensemble/internal/providers"
)

// monthlyBaseline is a rough northern-hemisphere mid-latitude daily maximum
// per month, °C. Good enough for filler data that should merely look
// plausible.
var monthlyBaseline = [12]float64{2, 4, 9, 14, 19, 23, 26, 25, 20, 14, 8, 4}

// syntheticCodes are WMO codes the generator draws conditions from.
var syntheticCodes = []int{0, 1, 2, 3, 45, 51, 61, 63, 80}

// syntheticForecast fabricates a seasonally plausible 7-day forecast starting
// at start. It is the terminal link of the forecast chain and never fails;
// all randomness flows through rng so callers can seed it for reproducible
// output.
func syntheticForecast(rng *rand.Rand, start time.Time) []models.DailyForecastPoint {
	base := monthlyBaseline[start.Month()-1]
	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)

	points := make([]models.DailyForecastPoint, 0, 7)
	for i := 0; i < 7; i++ {
		maxC := base + rng.Float64()*8 - 4
		minC := maxC - 4 - rng.Float64()*6

		code := syntheticCodes[rng.Intn(len(syntheticCodes))]
		var precip float64
		if code >= 51 {
			precip = rng.Float64() * 8
		}

		points = append(points, models.DailyForecastPoint{
			Date:            day.AddDate(0, 0, i),
			TempMaxC:        maxC,
			TempMinC:        minC,
			WeatherCode:     code,
			Description:     providers.ConditionFromWMO(code),
			PrecipitationMm: precip,
			WindMaxMS:       1 + rng.Float64()*9,
		})
	}
	return points
}
