package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashchat/apperrors"
	"dashchat/models"
)

func conversationWith(scenario string, texts ...string) *models.Conversation {
	conv := &models.Conversation{
		ID:       "conv-1",
		Scenario: scenario,
	}
	for i, text := range texts {
		sender := models.SenderUser
		if i%2 == 1 {
			sender = models.SenderAI
		}
		conv.Append(sender, text, models.TypeText, time.Now())
	}
	return conv
}

func TestCompleteReturnsOutputText(t *testing.T) {
	var gotReq generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"output":{"text":"hello there"}}`)
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient("test-key", srv.URL)
	reply, err := client.Complete(context.Background(), conversationWith(models.ScenarioGeneral, "hi"))
	require.NoError(t, err)
	assert.Equal(t, "hello there", reply)

	assert.Equal(t, chatModel, gotReq.Model)
	require.Len(t, gotReq.Input.Messages, 2)
	assert.Equal(t, "system", gotReq.Input.Messages[0].Role)
	assert.Equal(t, "You are a helpful assistant.", gotReq.Input.Messages[0].Content)
	assert.Equal(t, "user", gotReq.Input.Messages[1].Role)
	assert.Equal(t, "hi", gotReq.Input.Messages[1].Content)
}

func TestCompleteFallsBackToChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"output":{"choices":[{"message":{"role":"assistant","content":"from choices"}}]}}`)
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient("test-key", srv.URL)
	reply, err := client.Complete(context.Background(), conversationWith(models.ScenarioGeneral, "hi"))
	require.NoError(t, err)
	assert.Equal(t, "from choices", reply)
}

func TestCompleteEmptyReplyIsTyped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"output":{}}`)
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient("test-key", srv.URL)
	_, err := client.Complete(context.Background(), conversationWith(models.ScenarioGeneral, "hi"))
	var empty *apperrors.EmptyReplyError
	require.ErrorAs(t, err, &empty)
}

func TestCompleteProviderFailurePropagatesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"message":"rate limited"}`)
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient("test-key", srv.URL)
	_, err := client.Complete(context.Background(), conversationWith(models.ScenarioGeneral, "hi"))
	var provErr *apperrors.ProviderError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, http.StatusTooManyRequests, provErr.StatusCode)
	assert.Contains(t, provErr.Msg, "rate limited")
}

func TestCompleteWithoutAPIKeyFailsBeforeAnyCall(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		fmt.Fprint(w, `{"output":{"text":"never"}}`)
	}))
	t.Cleanup(srv.Close)

	client := NewChatClient("", srv.URL)
	_, err := client.Complete(context.Background(), conversationWith(models.ScenarioGeneral, "hi"))
	var cfgErr *apperrors.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, int64(0), calls.Load())
}

func TestCompleteSendsOnlyTrailingWindow(t *testing.T) {
	var gotReq generationRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		fmt.Fprint(w, `{"output":{"text":"ok"}}`)
	}))
	t.Cleanup(srv.Close)

	texts := make([]string, 14)
	for i := range texts {
		texts[i] = fmt.Sprintf("turn-%d", i)
	}
	conv := conversationWith(models.ScenarioGeneral, texts...)

	client := NewChatClient("test-key", srv.URL)
	_, err := client.Complete(context.Background(), conv)
	require.NoError(t, err)

	// system prompt plus the last 10 turns, oldest four dropped
	require.Len(t, gotReq.Input.Messages, 11)
	assert.Equal(t, "turn-4", gotReq.Input.Messages[1].Content)
	assert.Equal(t, "turn-13", gotReq.Input.Messages[10].Content)
}

func TestPersonaFollowsScenario(t *testing.T) {
	assert.Equal(t, "You are a coding assistant.", personaFor(models.ScenarioCode))
	assert.Equal(t, "You are a creative writing assistant.", personaFor(models.ScenarioCreative))
	assert.Equal(t, "You are a helpful assistant.", personaFor(models.ScenarioGeneral))
	assert.Equal(t, "You are a helpful assistant.", personaFor("somethingelse"))
}
