package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/observability"
	apperrors "github.com/spec-kit/request-service/pkg/util/errorutil"
)

// MiddlewareConfig controls the global middleware chain.
type MiddlewareConfig struct {
	Timeout     time.Duration
	CORSOrigins string
	Development bool
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, cfg MiddlewareConfig) {
	if cfg.CORSOrigins == "" {
		cfg.CORSOrigins = "*"
	}
	app.Use(requestid.New(requestid.Config{ContextKey: observability.RequestIDLocal}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: cfg.CORSOrigins != "*",
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH",
		AllowHeaders:     "Content-Type,Authorization",
	}))
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, cfg.Development))
	if cfg.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(cfg.Timeout))
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, development bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			var stack []byte
			if r := recover(); r != nil {
				stack = debug.Stack()
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", stack))
				err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			}
			if err != nil {
				domainErr := toDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
					logger.Error("request failed", zap.String("path", c.Path()), zap.Error(domainErr))
				}
				err = writeError(c, domainErr, development, stack)
			}
		}()
		return c.Next()
	}
}

// ErrorHandler renders errors that escape the middleware chain, e.g. body limit violations.
func ErrorHandler(development bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, toDomainError(err), development, nil)
	}
}

// writeError renders the envelope. Causes and stacks are only exposed in development.
func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError, development bool, stack []byte) error {
	response := dto.ErrorEnvelope{
		Success: false,
		Message: domainErr.Message,
		Code:    domainErr.Code,
		Details: domainErr.Details,
	}
	if development {
		if domainErr.Err != nil {
			response.Error = domainErr.Err.Error()
		}
		response.Stack = string(stack)
	}
	return c.Status(domainErr.HTTPStatus).JSON(response)
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return apperrors.NewDomainError(codeForStatus(fiberErr.Code), fiberErr.Message, fiberErr.Code, nil)
	}
	return apperrors.ToDomainError(err)
}

func codeForStatus(status int) string {
	switch status {
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
		return apperrors.CodeValidationFailed
	case fiber.StatusUnauthorized:
		return apperrors.CodeUnauthorized
	case fiber.StatusForbidden:
		return apperrors.CodeForbidden
	case fiber.StatusNotFound:
		return apperrors.CodeNotFound
	case fiber.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	}
	if status >= fiber.StatusInternalServerError {
		return apperrors.CodeInternal
	}
	return strings.ToUpper(strings.ReplaceAll(nethttp.StatusText(status), " ", "_"))
}
