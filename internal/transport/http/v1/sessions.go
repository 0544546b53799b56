package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/xenolt/chatrelay/internal/domain"
)

// CreateSession registers a new session and starts its transport.
// POST /v1/sessions
func (h *Handler) CreateSession(c echo.Context) error {
	id := h.registry.Create()
	return c.JSON(http.StatusCreated, map[string]string{
		"session_id": id,
	})
}

// ListSessions lists all registered sessions.
// GET /v1/sessions
func (h *Handler) ListSessions(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"sessions": h.registry.List(),
	})
}

// GetSession returns one session's status.
// GET /v1/sessions/:session_id
func (h *Handler) GetSession(c echo.Context) error {
	s, ok := h.registry.Get(c.Param("session_id"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, s.Info())
}

// GetPairingArtifact serves the session's QR image, 404 when the artifact
// was never emitted or already consumed.
// GET /v1/sessions/:session_id/qr
func (h *Handler) GetPairingArtifact(c echo.Context) error {
	path, err := h.registry.PairingArtifact(c.Param("session_id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "pairing artifact not found"})
	}
	return c.File(path)
}

// SetPromptRequest is the request body for SetPrompt.
type SetPromptRequest struct {
	Prompt string `json:"prompt"`
}

// SetPrompt replaces the session's system prompt.
// PUT /v1/sessions/:session_id/prompt
func (h *Handler) SetPrompt(c echo.Context) error {
	var req SetPromptRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request body"})
	}
	if req.Prompt == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "prompt is required"})
	}

	if err := h.registry.SetPrompt(c.Param("session_id"), req.Prompt); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "prompt updated"})
}

// GetUserHistory returns the audited transcript for a session user.
// GET /v1/sessions/:session_id/users/:user_id/history
func (h *Handler) GetUserHistory(c echo.Context) error {
	sessionID := c.Param("session_id")
	userID := c.Param("user_id")

	if _, ok := h.registry.Get(sessionID); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "session not found"})
	}

	limit := 50
	if l := c.QueryParam("limit"); l != "" {
		if val, err := strconv.Atoi(l); err == nil {
			limit = val
		}
	}

	messages, err := h.audit.History(c.Request().Context(), sessionID, userID, limit)
	if err != nil {
		h.logger.Error("failed to load history", zap.String("session_id", sessionID), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to load history"})
	}
	if messages == nil {
		messages = []domain.Message{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"messages": messages,
	})
}

// ClearUserHistory empties the user's conversation window and audit
// transcript. The 404 body distinguishes unknown session from unknown user
// for caller diagnostics.
// DELETE /v1/sessions/:session_id/users/:user_id/history
func (h *Handler) ClearUserHistory(c echo.Context) error {
	sessionID := c.Param("session_id")
	userID := c.Param("user_id")

	if err := h.registry.ClearUserHistory(sessionID, userID); err != nil {
		msg := "session not found"
		if errors.Is(err, domain.ErrUserNotFound) {
			msg = "user not found"
		}
		return c.JSON(http.StatusNotFound, map[string]string{"error": msg})
	}

	if err := h.audit.ClearHistory(c.Request().Context(), sessionID, userID); err != nil {
		h.logger.Warn("failed to clear audit history",
			zap.String("session_id", sessionID), zap.String("user_id", userID), zap.Error(err))
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "user history cleared"})
}
