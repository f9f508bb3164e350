package ensemble

import (
	"fmt"
	"strings"

	"weather-ensemble/internal/models"
)

// Advisory thresholds. Wind has two severities; crossing the higher one
// fires both rules.
const (
	hotTempC         = 25.0
	coldTempC        = 15.0
	windCautionMS    = 10.0
	windStrongMS     = 15.0
	humidHumidityPct = 85.0
)

// advise applies the fixed rule table in order; every matching rule fires.
// If nothing matches, a single favorable-conditions line is emitted.
func advise(avgTemp, avgWind, avgHumidity float64, trend models.Trend, anomaly models.Anomaly) (recommendations, alerts []string) {
	if avgTemp > hotTempC {
		recommendations = append(recommendations, "High temperatures expected: use sun protection and stay hydrated.")
	}
	if avgTemp < coldTempC {
		recommendations = append(recommendations, "Cool conditions expected: dress warmly.")
	}
	if avgWind > windCautionMS {
		recommendations = append(recommendations, "Windy conditions: take care outdoors and on the road.")
	}
	if avgWind > windStrongMS {
		alerts = append(alerts, "Strong wind: secure loose objects and avoid exposed areas.")
	}
	if avgHumidity > humidHumidityPct {
		recommendations = append(recommendations, "Very humid air: expect muggy conditions and reduced comfort.")
	}

	switch trend.Direction {
	case models.TrendRising:
		recommendations = append(recommendations, "Temperatures are rising; plan for warmer conditions later.")
	case models.TrendFalling:
		recommendations = append(recommendations, "Temperatures are falling; carry an extra layer.")
	}

	if anomaly.IsAnomaly {
		alerts = append(alerts, fmt.Sprintf(
			"Sources disagree significantly (outliers: %s); treat this forecast with caution.",
			strings.Join(anomaly.AbnormalSources, ", ")))
	}

	if len(recommendations) == 0 && len(alerts) == 0 {
		recommendations = append(recommendations, "Weather conditions are favorable.")
	}

	return recommendations, alerts
}
