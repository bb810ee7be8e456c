package models

import "time"

// Message sender values
const (
	SenderUser = "user"
	SenderAI   = "ai"
)

// Message content types
const (
	TypeText  = "text"
	TypeImage = "image"
)

// Known scenarios. Anything else falls back to the general persona.
const (
	ScenarioGeneral    = "general"
	ScenarioCode       = "code"
	ScenarioCreative   = "creative"
	ScenarioAIPainting = "aipainting"
)

// Message is a single turn in a conversation. For image replies Text holds
// the generated image URL. Messages are immutable once appended.
type Message struct {
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Conversation is an ordered message log identified by an opaque id.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Scenario    string    `json:"scenario"`
	Messages    []Message `json:"messages"`
	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// Append adds a message and refreshes LastUpdated.
func (c *Conversation) Append(sender, text, msgType string, now time.Time) {
	c.Messages = append(c.Messages, Message{
		Sender:    sender,
		Text:      text,
		Type:      msgType,
		Timestamp: now,
	})
	c.LastUpdated = now
}

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Scenario     string    `json:"scenario"`
	LastUpdated  time.Time `json:"lastUpdated"`
	MessageCount int       `json:"messageCount"`
	Icon         string    `json:"icon"`
}

// ChatRequest is the request body for POST /api/chat
type ChatRequest struct {
	Message        string `json:"message"`
	Scenario       string `json:"scenario"`
	ConversationID string `json:"conversationId"`
}

// ImageRequest is the request body for POST /api/image/generate
type ImageRequest struct {
	Prompt         string `json:"prompt"`
	Size           string `json:"size"`
	NegativePrompt string `json:"negative_prompt"`
	ConversationID string `json:"conversationId"`
}

// ReplyResponse is the success body for both chat and image generation.
type ReplyResponse struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversationId"`
	Type           string `json:"type"`
}
