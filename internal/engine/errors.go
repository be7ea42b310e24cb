package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"zipier/internal/webhook"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`
	Err     error         `json:"-"`
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

func NotFoundError(kind, id string) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  404,
		Message: fmt.Sprintf("%s with id %s not found", kind, id),
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

func ConflictError(msg string) *AppError {
	return &AppError{Code: "CONFLICT", Status: 409, Message: msg}
}

// WebhookFailedError reports a webhook that answered outside the 2xx range.
// The raw response body is carried in the details.
func WebhookFailedError(actionID string, failure *webhook.FailureError) *AppError {
	return &AppError{
		Code:    "WEBHOOK_FAILED",
		Status:  502,
		Message: fmt.Sprintf("Webhook for action %s returned HTTP %d", actionID, failure.StatusCode),
		Details: []ErrorDetail{{Field: "response_body", Message: string(failure.RawBody)}},
		Err:     failure,
	}
}

// actionError classifies an error from compiling or sending an action's webhook.
func actionError(actionID string, err error) *AppError {
	var failure *webhook.FailureError
	switch {
	case errors.As(err, &failure):
		return WebhookFailedError(actionID, failure)
	case errors.Is(err, webhook.ErrUnsupportedMethod), errors.Is(err, webhook.ErrMissingURL),
		errors.Is(err, webhook.ErrInvalidJSON):
		return &AppError{Code: "INVALID_ACTION", Status: 422, Message: err.Error(), Err: err}
	default:
		return &AppError{
			Code:    "WEBHOOK_UNREACHABLE",
			Status:  502,
			Message: fmt.Sprintf("Webhook for action %s could not be delivered", actionID),
			Details: []ErrorDetail{{Message: err.Error()}},
			Err:     err,
		}
	}
}

// ErrorHandler renders errors in the {"error": {...}} envelope. Unknown
// errors are logged and reported as INTERNAL_ERROR.
func ErrorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *AppError
		if errors.As(err, &appErr) {
			return c.Status(appErr.Status).JSON(ErrorResponse{Error: appErr})
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Error: &AppError{Code: "HTTP_ERROR", Message: fiberErr.Message},
			})
		}

		log.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error: &AppError{
				Code:    "INTERNAL_ERROR",
				Message: "Internal server error",
			},
		})
	}
}
