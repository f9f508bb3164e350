package models

// ReportResponse is the analyze endpoint's body. The warm-refresh job stores
// the same shape in the cache, so cached and fresh responses are identical.
type ReportResponse struct {
	Report string `json:"report"`
}

// ErrorResponse is the uniform error body for the HTTP API.
type ErrorResponse struct {
	Error string `json:"error" example:"message"`
}
