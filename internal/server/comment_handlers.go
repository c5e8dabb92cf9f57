package server

import (
	"alliancefeed/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
)

// GetFeed handles GET /api/feed. It serves the engine's current in-memory
// view, not a fresh database read, so every client sees the same ordering.
func (s *Server) GetFeed(c *fiber.Ctx) error {
	view := s.feed.View()
	return c.JSON(fiber.Map{
		"comments": renderComments(view),
		"count":    len(view),
	})
}

// PublishComment handles POST /api/feed/comments. The draft is routed
// through the session's composer: an update when the session is editing, a
// new comment (optionally a reply) otherwise. A whitespace-only draft is
// accepted and does nothing.
func (s *Server) PublishComment(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}

	comment, err := s.feed.Publish(c.Context(), sess, req.Text)
	if err != nil {
		return respondError(c, err)
	}
	if comment == nil {
		// Empty draft: nothing was published and nothing was cleared.
		return c.Status(fiber.StatusNoContent).Send(nil)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"comment": comment,
	})
}

// DeleteComment handles DELETE /api/feed/comments/:id. Only the author may
// delete; the permission check runs before any write is attempted.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID := c.Params("id")
	if commentID == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Comment ID is required"))
	}

	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.feed.Delete(c.Context(), sess, commentID); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"message": "Comment deleted"})
}

// GetInteraction handles GET /api/feed/interaction and returns the calling
// session's composer state.
func (s *Server) GetInteraction(c *fiber.Ctx) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(renderInteraction(s.feed.StateOf(sess.UserID)))
}

// BeginEdit handles POST /api/feed/comments/:id/edit. The composer enters
// edit mode with the comment's current text as the draft; any pending reply
// target is displaced.
func (s *Server) BeginEdit(c *fiber.Ctx) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}

	// Copy the param: fiber reuses the request buffer, and the feed keeps
	// the ID past this request's lifetime.
	if err := s.feed.BeginEdit(sess.UserID, utils.CopyString(c.Params("id"))); err != nil {
		return respondError(c, err)
	}
	return c.JSON(renderInteraction(s.feed.StateOf(sess.UserID)))
}

// BeginReply handles POST /api/feed/comments/:id/reply. The composer enters
// reply mode with the parent's author pre-filled; any pending edit target is
// displaced.
func (s *Server) BeginReply(c *fiber.Ctx) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := s.feed.BeginReply(sess.UserID, utils.CopyString(c.Params("id"))); err != nil {
		return respondError(c, err)
	}
	return c.JSON(renderInteraction(s.feed.StateOf(sess.UserID)))
}

// ToggleMenu handles POST /api/feed/comments/:id/menu.
func (s *Server) ToggleMenu(c *fiber.Ctx) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}

	s.feed.ToggleMenu(sess.UserID, utils.CopyString(c.Params("id")))
	return c.JSON(renderInteraction(s.feed.StateOf(sess.UserID)))
}

// DismissInteraction handles POST /api/feed/interaction/dismiss. Closes the
// menu and drops a pending reply; an in-progress edit survives.
func (s *Server) DismissInteraction(c *fiber.Ctx) error {
	sess, err := s.currentSession(c)
	if err != nil {
		return respondError(c, err)
	}

	s.feed.DismissAll(sess.UserID)
	return c.JSON(renderInteraction(s.feed.StateOf(sess.UserID)))
}
