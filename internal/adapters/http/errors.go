package http

import "github.com/gofiber/fiber/v2"

// APIError is the envelope every non-2xx response carries.
type APIError struct {
	Status    int    `json:"status"`
	Code      string `json:"code"`    // machine-readable: bad_request, not_found, ...
	Message   string `json:"message"` // human-readable
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *fiber.Ctx, status int, code, message string) error {
	reqID, _ := c.Locals("requestid").(string)
	return c.Status(status).JSON(APIError{
		Status:    status,
		Code:      code,
		Message:   message,
		RequestID: reqID,
	})
}

func errBadRequest(c *fiber.Ctx, msg string) error {
	return respondError(c, fiber.StatusBadRequest, "bad_request", msg)
}

func errNotFound(c *fiber.Ctx, msg string) error {
	return respondError(c, fiber.StatusNotFound, "not_found", msg)
}

func errInternal(c *fiber.Ctx, msg string) error {
	return respondError(c, fiber.StatusInternalServerError, "internal_error", msg)
}
