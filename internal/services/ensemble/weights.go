package ensemble

// Hand-assigned reliability weights per source. Government data (US NWS) is
// trusted most, hobbyist endpoints least. Sources not listed here weigh 1.0.
var sourceWeights = map[string]float64{
	"USNWS":          1.2,
	"OpenMeteo":      1.1,
	"OpenWeatherMap": 1.05,
	"WeatherAPI":     1.0,
	"Wttr":           0.9,
}

const defaultWeight = 1.0

// SourceWeight returns the reliability weight used when averaging readings
// from the named source.
func SourceWeight(source string) float64 {
	if w, ok := sourceWeights[source]; ok {
		return w
	}
	return defaultWeight
}
