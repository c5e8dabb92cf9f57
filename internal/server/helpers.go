package server

import (
	"errors"

	"alliancefeed/internal/models"
	"alliancefeed/internal/session"

	"github.com/gofiber/fiber/v2"
)

// currentSession resolves the authenticated user's session. AuthRequired
// must have run first so userID is present in locals.
func (s *Server) currentSession(c *fiber.Ctx) (session.Session, error) {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return session.Session{}, models.NewUnauthorizedError("Authorization required")
	}
	return s.sessions.Resolve(c.Context(), userID)
}

// statusForError maps application error codes to HTTP statuses.
func statusForError(err error) int {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		return fiber.StatusInternalServerError
	}
	switch appErr.Code {
	case models.CodeValidation:
		return fiber.StatusBadRequest
	case models.CodeUnauthorized:
		return fiber.StatusUnauthorized
	case models.CodePermission:
		return fiber.StatusForbidden
	case models.CodeNotFound:
		return fiber.StatusNotFound
	case models.CodePublish, models.CodeStream:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes an error response with the status implied by its code.
func respondError(c *fiber.Ctx, err error) error {
	return models.RespondWithError(c, statusForError(err), err)
}
