package models

// TrendDirection classifies how temperature moved across the readings.
type TrendDirection string

const (
	TrendRising  TrendDirection = "rising"
	TrendFalling TrendDirection = "falling"
	TrendStable  TrendDirection = "stable"
)

// Trend is the last-minus-first delta over timestamp-ordered readings.
type Trend struct {
	Direction      TrendDirection `json:"direction" example:"stable"`
	ChangeDegC     float64        `json:"change_deg_c"`
	HumidityChange float64        `json:"humidity_change"`
	WindChange     float64        `json:"wind_change"`
}

// Anomaly describes readings that deviate from the cross-source mean by more
// than two population standard deviations.
type Anomaly struct {
	IsAnomaly       bool     `json:"is_anomaly"`
	Mean            float64  `json:"mean"`
	StdDev          float64  `json:"std_dev"`
	AbnormalSources []string `json:"abnormal_sources,omitempty"`
}

// EnsembleResult is the reconciliation engine's synthesized output for one
// request. MinTempC <= AvgTempC <= MaxTempC always holds; the min/max carry a
// fixed 2° uncertainty margin beyond the raw observed spread.
//
// Confidence is a heuristic 0-100 score, not a statistical confidence
// interval: it rewards source count, cross-source consistency and physically
// plausible field values.
type EnsembleResult struct {
	AvgTempC        float64  `json:"avg_temp_c"`
	MinTempC        float64  `json:"min_temp_c"`
	MaxTempC        float64  `json:"max_temp_c"`
	AvgHumidity     float64  `json:"avg_humidity"`
	AvgWindMS       float64  `json:"avg_wind_ms"`
	AvgPressureHpa  float64  `json:"avg_pressure_hpa"`
	Descriptions    []string `json:"descriptions"`
	Trend           Trend    `json:"trend"`
	Anomaly         Anomaly  `json:"anomaly"`
	Confidence      int      `json:"confidence" example:"85"`
	Recommendations []string `json:"recommendations"`
	Alerts          []string `json:"alerts,omitempty"`
}
