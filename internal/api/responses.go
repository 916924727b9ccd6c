// Package api holds the response envelopes and validation helpers shared
// across handlers.
package api

type ErrorResponse struct {
	Error string `json:"error" example:"insufficient wallet balance"`
}

type MessageResponse struct {
	Message string `json:"message" example:"search index rebuilt successfully"`
}

type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
