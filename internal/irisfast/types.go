package irisfast

import "strings"

// Message is one chat message pushed by Iris over the WebSocket.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

type MessageJSON struct {
	UserID string `json:"user_id,omitempty"`
	ChatID string `json:"chat_id,omitempty"`
}

// SenderName returns the display name of the sender, or "" when unknown.
func (m *Message) SenderName() string {
	if m == nil || m.Sender == nil {
		return ""
	}
	return strings.TrimSpace(*m.Sender)
}

// UserID returns the sender's user id, or "" when unknown.
func (m *Message) UserID() string {
	if m == nil || m.JSON == nil {
		return ""
	}
	return strings.TrimSpace(m.JSON.UserID)
}

// Config is the bridge configuration returned by GET /config.
type Config struct {
	BotName           string `json:"bot_name,omitempty"`
	Port              int    `json:"bot_http_port"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

// Reply types understood by POST /reply and the socket.
const (
	ReplyText  = "text"
	ReplyImage = "image"
)

// ReplyRequest is one outgoing room message. Images travel base64 encoded
// in Data.
type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}
