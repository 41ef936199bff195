package domain

// ListStyle hints how a transport should render a choice prompt.
type ListStyle string

const (
	StyleNone    ListStyle = ""
	StyleList    ListStyle = "list"
	StyleButtons ListStyle = "buttons"
)

// Message is one outbound message produced during a turn. Text is
// markdown-flavored plain text; Choices, when present, ask the transport to
// render a selection list alongside the text.
type Message struct {
	Text    string    `json:"text"`
	Choices []string  `json:"choices,omitempty"`
	Style   ListStyle `json:"style,omitempty"`
}

// TextMessage builds a plain text message.
func TextMessage(text string) Message {
	return Message{Text: text}
}
