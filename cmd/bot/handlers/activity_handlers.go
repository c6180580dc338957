package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"evidenze-chat/chat"
	"evidenze-chat/cmd/bot/activity"
	"evidenze-chat/cmd/bot/connector"
	"evidenze-chat/internal/logger"
	"evidenze-chat/relay"
)

// MessagesHandler is the Bot Framework entry point. Message activities run
// through the relay; conversationUpdate activities take the stateless welcome
// path. Anything else is acknowledged and ignored. processing is the interim
// acknowledgment text sent before a turn reaches the model; empty disables it.
func MessagesHandler(responder *relay.Responder, conn *connector.Client, processing string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var act activity.Activity
		if err := c.ShouldBindJSON(&act); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_activity"})
			return
		}

		switch act.Type {
		case activity.TypeMessage:
			handleMessage(c, responder, conn, act, processing)
		case activity.TypeConversationUpdate:
			handleConversationUpdate(c, responder, conn, act)
		default:
			c.JSON(http.StatusOK, gin.H{})
		}
	}
}

func handleMessage(c *gin.Context, responder *relay.Responder, conn *connector.Client, act activity.Activity, processing string) {
	ctx := c.Request.Context()

	reply, err := responder.Respond(ctx, relay.Turn{
		SessionID: act.Conversation.ID,
		UserName:  act.From.Name,
		Text:      act.Text,
		OnDispatch: func() {
			if processing == "" {
				return
			}
			// the acknowledgment is best effort: a failed ack must not
			// abort the turn
			if err := conn.SendActivity(ctx, act.ServiceURL, act.Reply(processing)); err != nil {
				logger.WarnWithFields("sending processing activity failed", logger.Fields{
					"conversation_id": act.Conversation.ID,
					"error":           err.Error(),
				})
			}
		},
	})
	if err != nil {
		if errors.Is(err, chat.ErrEmptyMessage) {
			// nothing to answer, nothing mutated
			c.JSON(http.StatusOK, gin.H{})
			return
		}
		var roleErr *chat.InvalidRoleError
		var histErr *chat.InvalidHistoryError
		if errors.As(err, &roleErr) || errors.As(err, &histErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}

	if err := conn.SendActivity(ctx, act.ServiceURL, act.Reply(reply.Text)); err != nil {
		logger.ErrorWithFields("sending reply activity failed", logger.Fields{
			"conversation_id": act.Conversation.ID,
			"error":           err.Error(),
		})
		c.JSON(http.StatusBadGateway, gin.H{"error": "delivery_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{})
}

// handleConversationUpdate greets new members and drops the session when the
// bot itself is removed from the conversation.
func handleConversationUpdate(c *gin.Context, responder *relay.Responder, conn *connector.Client, act activity.Activity) {
	ctx := c.Request.Context()

	for _, member := range act.MembersAdded {
		text, ok := responder.Welcome(member.Name, member.ID, act.Recipient.ID)
		if !ok {
			continue
		}
		welcome := act.Reply(text)
		welcome.Recipient = member
		if err := conn.SendActivity(ctx, act.ServiceURL, welcome); err != nil {
			logger.ErrorWithFields("sending welcome activity failed", logger.Fields{
				"conversation_id": act.Conversation.ID,
				"member_id":       member.ID,
				"error":           err.Error(),
			})
		}
	}

	for _, member := range act.MembersRemoved {
		if member.ID == act.Recipient.ID {
			responder.EndSession(act.Conversation.ID)
		}
	}

	c.JSON(http.StatusOK, gin.H{})
}
