// Package activity holds the Bot Framework wire envelope, reduced to the
// fields the relay consumes. The core never sees these types.
package activity

// Activity types handled by this service.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
)

// Account identifies a channel participant.
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Conversation identifies the channel conversation.
type Conversation struct {
	ID string `json:"id"`
}

// Activity is one inbound or outbound Bot Framework event.
type Activity struct {
	Type           string       `json:"type"`
	ID             string       `json:"id,omitempty"`
	Text           string       `json:"text,omitempty"`
	From           Account      `json:"from,omitempty"`
	Recipient      Account      `json:"recipient,omitempty"`
	Conversation   Conversation `json:"conversation,omitempty"`
	ServiceURL     string       `json:"serviceUrl,omitempty"`
	ChannelID      string       `json:"channelId,omitempty"`
	ReplyToID      string       `json:"replyToId,omitempty"`
	MembersAdded   []Account    `json:"membersAdded,omitempty"`
	MembersRemoved []Account    `json:"membersRemoved,omitempty"`
}

// Reply builds the outbound message activity answering this one: sender and
// recipient swap, the conversation stays, and the reply references the
// inbound activity id.
func (a Activity) Reply(text string) Activity {
	return Activity{
		Type:         TypeMessage,
		Text:         text,
		From:         a.Recipient,
		Recipient:    a.From,
		Conversation: a.Conversation,
		ReplyToID:    a.ID,
	}
}
