package chat

// Sender identifies who authored a message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderBot  Sender = "bot"
)

// Message is one entry of the conversation log. Entries are immutable once
// appended and have no identity beyond their position.
type Message struct {
	Text string `json:"text"`
	From Sender `json:"from"`
}

// UserMessage builds a message authored by the local user.
func UserMessage(text string) Message {
	return Message{Text: text, From: SenderUser}
}

// BotMessage builds a message authored by the answer service.
func BotMessage(text string) Message {
	return Message{Text: text, From: SenderBot}
}
