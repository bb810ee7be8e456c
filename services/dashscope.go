// Package services holds the HTTP clients for the DashScope provider: text
// chat completion and asynchronous image synthesis.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"dashchat/apperrors"
	"dashchat/models"
)

// DefaultBaseURL is the DashScope API host.
const DefaultBaseURL = "https://dashscope.aliyuncs.com"

const (
	textGenerationPath = "/api/v1/services/aigc/text-generation/generation"
	chatModel          = "qwen-turbo"

	// historyWindow bounds how much of the conversation is replayed to the
	// provider: the last 5 user/ai pairs.
	historyWindow = 10
)

// ChatClient calls the DashScope text-generation endpoint.
type ChatClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewChatClient creates a chat completion client. An empty baseURL selects
// the production DashScope host.
func NewChatClient(apiKey, baseURL string) *ChatClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &ChatClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type generationRequest struct {
	Model string `json:"model"`
	Input struct {
		Messages []chatMessage `json:"messages"`
	} `json:"input"`
	Parameters struct{} `json:"parameters"`
}

type generationResponse struct {
	Output struct {
		Text    string `json:"text"`
		Choices []struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	} `json:"output"`
}

// Complete sends the conversation to the provider and returns the reply
// text. The newly appended user turn must already be in the message log.
func (c *ChatClient) Complete(ctx context.Context, conv *models.Conversation) (string, error) {
	if c.apiKey == "" {
		return "", &apperrors.ConfigurationError{Msg: "API key is not configured"}
	}

	var reqBody generationRequest
	reqBody.Model = chatModel
	reqBody.Input.Messages = buildMessages(conv)

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+textGenerationPath, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request to DashScope: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", providerError(resp.StatusCode, body)
	}

	var genResp generationResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}

	reply := genResp.Output.Text
	if reply == "" && len(genResp.Output.Choices) > 0 {
		reply = genResp.Output.Choices[0].Message.Content
	}
	if reply == "" {
		return "", &apperrors.EmptyReplyError{}
	}
	return reply, nil
}

// buildMessages maps the scenario persona plus the trailing history window
// into the provider's role/content shape.
func buildMessages(conv *models.Conversation) []chatMessage {
	window := conv.Messages
	if len(window) > historyWindow {
		window = window[len(window)-historyWindow:]
	}

	messages := make([]chatMessage, 0, len(window)+1)
	messages = append(messages, chatMessage{Role: "system", Content: personaFor(conv.Scenario)})
	for _, msg := range window {
		role := "assistant"
		if msg.Sender == models.SenderUser {
			role = "user"
		}
		messages = append(messages, chatMessage{Role: role, Content: msg.Text})
	}
	return messages
}

func personaFor(scenario string) string {
	switch scenario {
	case models.ScenarioCode:
		return "You are a coding assistant."
	case models.ScenarioCreative:
		return "You are a creative writing assistant."
	default:
		return "You are a helpful assistant."
	}
}

// providerError converts an upstream failure body into a ProviderError,
// preferring the provider's message field over the raw payload.
func providerError(status int, body []byte) error {
	var parsed struct {
		Message string `json:"message"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		msg = parsed.Message
	}
	return &apperrors.ProviderError{
		StatusCode: status,
		Msg:        fmt.Sprintf("DashScope API error: %s", msg),
	}
}
