package model

import (
	"github.com/labstack/echo/v4"
)

// Response status constants.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// ResponseBody is the envelope wrapped around every response returned by the service.
//
// swagger:model
type ResponseBody struct {
	// The result of the request, if it succeeded
	Result interface{} `json:"result,omitempty"`

	// The error message, if the request failed
	Error string `json:"error,omitempty"`

	// Either "success" or "error"
	Status string `json:"status"`
}

// SuccessResponse wraps a result in a response envelope.
func SuccessResponse(result interface{}, status int) *ResponseBody {
	return &ResponseBody{Result: result, Status: StatusSuccess}
}

// Success sends a successful response with the given result.
func Success(ctx echo.Context, result interface{}, status int) error {
	return ctx.JSON(status, SuccessResponse(result, status))
}

// SuccessMessage sends a successful response containing just a message.
func SuccessMessage(ctx echo.Context, msg string, status int) error {
	return ctx.JSON(status, &ResponseBody{Result: msg, Status: StatusSuccess})
}

// Error sends an error response with the given message.
func Error(ctx echo.Context, msg string, status int) error {
	return ctx.JSON(status, &ResponseBody{Error: msg, Status: StatusError})
}

// Failure sends an error response that still carries a structured result, such as a quota denial with the
// current usage and cap.
func Failure(ctx echo.Context, result interface{}, msg string, status int) error {
	return ctx.JSON(status, &ResponseBody{Result: result, Error: msg, Status: StatusError})
}
