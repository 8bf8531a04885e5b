package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// The dashboard frontend expects these exact field names, so the helpers
// below are the only place response envelopes are shaped.

type errorEnvelope struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

type cleanupResponse struct {
	Success         bool   `json:"success"`
	TotalRemoved    int    `json:"totalRemoved"`
	ExactDuplicates int    `json:"exactDuplicates"`
	FuzzyDuplicates int    `json:"fuzzyDuplicates"`
	Message         string `json:"message"`
}

type schedulerResponse struct {
	Success       bool     `json:"success"`
	ActiveJobs    []string `json:"activeJobs"`
	IsInitialized bool     `json:"isInitialized"`
	Message       string   `json:"message"`
}

func errorJSON(c echo.Context, code int, message string, details any) error {
	return c.JSON(code, errorEnvelope{
		Error:   message,
		Details: details,
	})
}

func badRequest(c echo.Context, message string, details any) error {
	return errorJSON(c, http.StatusBadRequest, message, details)
}

func internalError(c echo.Context, message string, details any) error {
	return errorJSON(c, http.StatusInternalServerError, message, details)
}
