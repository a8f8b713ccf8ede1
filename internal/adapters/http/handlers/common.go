package handlers

import (
	"errors"
	"log"
	"strconv"

	"assurance-claims/internal/adapters/http/middleware"
	"assurance-claims/internal/core/domain"
	"assurance-claims/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

var errInvalidID = domain.Validation("invalid id")

// statusForKind maps a business error kind to its HTTP status
func statusForKind(kind error) int {
	switch kind {
	case domain.ErrNotFound:
		return fiber.StatusNotFound
	case domain.ErrForbidden:
		return fiber.StatusForbidden
	case domain.ErrUnauthorized:
		return fiber.StatusUnauthorized
	case domain.ErrConflict:
		return fiber.StatusConflict
	case domain.ErrInvalidState, domain.ErrWindowExpired, domain.ErrValidation:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err with the status of its kind. Unknown errors are logged
// and reported as 500 with a generic message.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	kind := domain.KindOf(err)
	if kind == nil {
		log.Printf("❌ %s %s: %v", c.Method(), c.Path(), err)
		return response.InternalServerError(c, fallback)
	}

	message := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		message = de.Message
	}

	return response.Error(c, statusForKind(kind), domain.KindCode(kind), message)
}

// caller returns the authenticated user and role
func caller(c *fiber.Ctx) (uint, domain.Role) {
	userID, _ := c.Locals(middleware.LocalUserID).(uint)
	role, _ := c.Locals(middleware.LocalRole).(domain.Role)
	return userID, role
}

// getClientIP gets client IP address
func getClientIP(c *fiber.Ctx) string {
	ip := c.Get("X-Real-IP")
	if ip == "" {
		ip = c.Get("X-Forwarded-For")
	}
	if ip == "" {
		ip = c.IP()
	}
	return ip
}

func paramID(c *fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

func queryUint(c *fiber.Ctx, key string) (uint, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, domain.Validation("invalid " + key)
	}
	return uint(v), nil
}
