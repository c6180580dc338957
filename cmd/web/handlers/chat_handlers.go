package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"evidenze-chat/chat"
	"evidenze-chat/cmd/web/auth"
	"evidenze-chat/cmd/web/dto"
	"evidenze-chat/relay"
)

const sessionCookie = "chat_session"
const cookieMaxAge = 12 * 60 * 60

// sessionID reads the signed session cookie, or mints a fresh session and
// sets the cookie when absent or invalid.
func sessionID(c *gin.Context, tokens *auth.SessionTokenManager) (string, error) {
	if raw, err := c.Cookie(sessionCookie); err == nil {
		if id, err := tokens.Parse(raw); err == nil {
			return id, nil
		}
	}

	id := uuid.New().String()
	signed, err := tokens.Sign(id)
	if err != nil {
		return "", err
	}
	c.SetCookie(sessionCookie, signed, cookieMaxAge, "/", "", false, true)
	return id, nil
}

// ChatHandler godoc
// @Summary      Send a chat message
// @Description  Runs one conversation turn for the caller's session and returns the assistant reply.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      dto.ChatRequestDTO  true  "chat message"
// @Success      200   {object}  dto.ChatResponseDTO
// @Failure      400   {object}  dto.ErrorResponseDTO
// @Failure      500   {object}  dto.ErrorResponseDTO
// @Router       /chat [post]
func ChatHandler(responder *relay.Responder, tokens *auth.SessionTokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.ChatRequestDTO
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
			return
		}

		sid, err := sessionID(c, tokens)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error"})
			return
		}

		reply, err := responder.Respond(c.Request.Context(), relay.Turn{
			SessionID: sid,
			Text:      req.Message,
		})
		if err != nil {
			if errors.Is(err, chat.ErrEmptyMessage) {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "empty_message"})
				return
			}
			var roleErr *chat.InvalidRoleError
			var histErr *chat.InvalidHistoryError
			if errors.As(err, &roleErr) || errors.As(err, &histErr) {
				c.JSON(http.StatusBadRequest, dto.ErrorResponseDTO{Error: "invalid_request"})
				return
			}
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error"})
			return
		}

		c.JSON(http.StatusOK, dto.ChatResponseDTO{Response: reply.Text})
	}
}

// ResetHandler godoc
// @Summary      Clear conversation history
// @Description  Truncates the caller's session back to the system seed.
// @Tags         chat
// @Produce      json
// @Success      200  {object}  dto.MessageResponseDTO
// @Router       /chat/reset [post]
func ResetHandler(responder *relay.Responder, tokens *auth.SessionTokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := sessionID(c, tokens)
		if err != nil {
			c.JSON(http.StatusInternalServerError, dto.ErrorResponseDTO{Error: "internal_error"})
			return
		}
		responder.ResetSession(sid)
		c.JSON(http.StatusOK, dto.MessageResponseDTO{Message: "history cleared"})
	}
}
