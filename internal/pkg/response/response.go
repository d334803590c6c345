package response

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessBody is the standardized success JSON shape.
type SuccessBody struct {
	Status   string      `json:"status"`
	Message  string      `json:"message"`
	Data     interface{} `json:"data"`
	Metadata interface{} `json:"metadata,omitempty"`
}

// ErrorBody is the standardized error JSON shape.
type ErrorBody struct {
	Status string      `json:"status"`
	Error  ErrorDetail `json:"error"`
}

// ErrorDetail is the nested error object.
type ErrorDetail struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Details    interface{} `json:"details,omitempty"`
}

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Success sends 200 with the standard success format.
func Success(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return send(c, fiber.StatusOK, message, data, metadata)
}

// SuccessCreated sends 201 with the standard success format.
func SuccessCreated(c *fiber.Ctx, message string, data interface{}, metadata interface{}) error {
	return send(c, fiber.StatusCreated, message, data, metadata)
}

// List sends 200 with items (never null) and metadata.count set to len(items).
// Keys in extra are merged into the metadata.
func List[T any](c *fiber.Ctx, message string, items []T, extra fiber.Map) error {
	if items == nil {
		items = []T{}
	}
	meta := fiber.Map{"count": len(items)}
	for k, v := range extra {
		meta[k] = v
	}
	return send(c, fiber.StatusOK, message, items, meta)
}

func send(c *fiber.Ctx, status int, message string, data interface{}, metadata interface{}) error {
	if metadata == nil {
		metadata = fiber.Map{}
	}
	return c.Status(status).JSON(SuccessBody{
		Status:   statusSuccess,
		Message:  message,
		Data:     data,
		Metadata: metadata,
	})
}

// Error sends statusCode with the standard error format.
func Error(c *fiber.Ctx, message string, statusCode int, details interface{}) error {
	if details == nil {
		details = fiber.Map{}
	}
	return c.Status(statusCode).JSON(ErrorBody{
		Status: statusError,
		Error: ErrorDetail{
			Message:    message,
			StatusCode: statusCode,
			Details:    details,
		},
	})
}

// Unauthorized sends 401 in the error shape, for the auth gate.
func Unauthorized(c *fiber.Ctx, message string) error {
	return Error(c, message, fiber.StatusUnauthorized, nil)
}
