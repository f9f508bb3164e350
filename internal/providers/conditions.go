package providers

import "strings"

// Canonical condition vocabulary. Every adapter maps its provider's codes or
// free-text labels onto these strings; unknown inputs become CondUnknown,
// never an error.
const (
	CondClearSky         = "clear sky"
	CondMainlyClear      = "mainly clear"
	CondPartlyCloudy     = "partly cloudy"
	CondOvercast         = "overcast"
	CondFog              = "fog"
	CondDrizzle          = "drizzle"
	CondFreezingDrizzle  = "freezing drizzle"
	CondLightRain        = "light rain"
	CondRain             = "rain"
	CondHeavyRain        = "heavy rain"
	CondFreezingRain     = "freezing rain"
	CondLightSnow        = "light snow"
	CondSnow             = "snow"
	CondHeavySnow        = "heavy snow"
	CondSnowGrains       = "snow grains"
	CondRainShowers      = "rain showers"
	CondSnowShowers      = "snow showers"
	CondThunderstorm     = "thunderstorm"
	CondThunderstormHail = "thunderstorm with hail"
	CondUnknown          = "unknown"
)

// ConditionFromWMO translates a WMO weather code into the canonical
// vocabulary.
func ConditionFromWMO(code int) string {
	switch code {
	case 0:
		return CondClearSky
	case 1:
		return CondMainlyClear
	case 2:
		return CondPartlyCloudy
	case 3:
		return CondOvercast
	case 45, 48:
		return CondFog
	case 51, 53, 55:
		return CondDrizzle
	case 56, 57:
		return CondFreezingDrizzle
	case 61:
		return CondLightRain
	case 63:
		return CondRain
	case 65:
		return CondHeavyRain
	case 66, 67:
		return CondFreezingRain
	case 71:
		return CondLightSnow
	case 73:
		return CondSnow
	case 75:
		return CondHeavySnow
	case 77:
		return CondSnowGrains
	case 80, 81, 82:
		return CondRainShowers
	case 85, 86:
		return CondSnowShowers
	case 95:
		return CondThunderstorm
	case 96, 99:
		return CondThunderstormHail
	default:
		return CondUnknown
	}
}

// ConditionFromOWM translates an OpenWeatherMap condition id into the
// canonical vocabulary.
func ConditionFromOWM(id int) string {
	switch {
	case id >= 200 && id < 300:
		return CondThunderstorm
	case id >= 300 && id < 400:
		return CondDrizzle
	case id == 500:
		return CondLightRain
	case id == 501:
		return CondRain
	case id >= 502 && id <= 504:
		return CondHeavyRain
	case id == 511:
		return CondFreezingRain
	case id >= 520 && id < 600:
		return CondRainShowers
	case id == 600:
		return CondLightSnow
	case id == 601:
		return CondSnow
	case id == 602:
		return CondHeavySnow
	case id > 602 && id < 700:
		return CondSnowShowers
	case id == 701, id == 721, id == 741:
		return CondFog
	case id == 800:
		return CondClearSky
	case id == 801:
		return CondMainlyClear
	case id == 802:
		return CondPartlyCloudy
	case id == 803, id == 804:
		return CondOvercast
	default:
		return CondUnknown
	}
}

// conditionFromText maps a provider's free-text condition label onto the
// canonical vocabulary by keyword. Used for providers (WeatherAPI, wttr.in)
// that report text instead of codes.
func conditionFromText(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	switch {
	case s == "":
		return CondUnknown
	case strings.Contains(s, "thunder") && strings.Contains(s, "hail"):
		return CondThunderstormHail
	case strings.Contains(s, "thunder"):
		return CondThunderstorm
	case strings.Contains(s, "freezing") && strings.Contains(s, "drizzle"):
		return CondFreezingDrizzle
	case strings.Contains(s, "freezing"):
		return CondFreezingRain
	case strings.Contains(s, "drizzle"):
		return CondDrizzle
	case strings.Contains(s, "heavy rain"), strings.Contains(s, "torrential"):
		return CondHeavyRain
	case strings.Contains(s, "light rain"), strings.Contains(s, "patchy rain"):
		return CondLightRain
	case strings.Contains(s, "shower") && strings.Contains(s, "snow"):
		return CondSnowShowers
	case strings.Contains(s, "shower"):
		return CondRainShowers
	case strings.Contains(s, "rain"):
		return CondRain
	case strings.Contains(s, "heavy snow"), strings.Contains(s, "blizzard"):
		return CondHeavySnow
	case strings.Contains(s, "light snow"):
		return CondLightSnow
	case strings.Contains(s, "snow"):
		return CondSnow
	case strings.Contains(s, "fog"), strings.Contains(s, "mist"), strings.Contains(s, "haze"):
		return CondFog
	case strings.Contains(s, "overcast"):
		return CondOvercast
	case strings.Contains(s, "partly"):
		return CondPartlyCloudy
	case strings.Contains(s, "cloud"):
		return CondPartlyCloudy
	case strings.Contains(s, "sunny"), strings.Contains(s, "clear"):
		return CondClearSky
	default:
		return CondUnknown
	}
}
