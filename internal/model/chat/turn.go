package chat

import "github.com/google/uuid"

// Author identifies who produced a turn.
type Author string

const (
	AuthorUser Author = "user"
	AuthorBot  Author = "bot"
)

// Intro is the bot's fixed opening turn on every fresh chat view.
const Intro = "Hello! I am your Carbon Assistant. I can help you with tips to reduce your footprint or answer questions based on your recent activity."

// Turn is one line of the conversation as shown on the page. Turns live only
// in the rendered view and are gone after a reload.
type Turn struct {
	ID     string `json:"id"`
	Author Author `json:"author"`
	Text   string `json:"text"`
}

// NewTurn stamps a turn with a fresh identifier.
func NewTurn(author Author, text string) Turn {
	return Turn{
		ID:     uuid.NewString(),
		Author: author,
		Text:   text,
	}
}

// Request is the payload of POST /chat.
type Request struct {
	Message string `json:"message"`
}

// Reply is the body returned by POST /chat.
type Reply struct {
	Response string `json:"response"`
}
