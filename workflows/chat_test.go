package workflows

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dashchat/apperrors"
	"dashchat/conversation"
	"dashchat/models"
	"dashchat/services"
	"dashchat/store"
)

func newFlows(t *testing.T, st store.Store, chatHandler, imageHandler http.HandlerFunc) *ChatWorkflows {
	t.Helper()
	chatSrv := httptest.NewServer(chatHandler)
	t.Cleanup(chatSrv.Close)
	imageSrv := httptest.NewServer(imageHandler)
	t.Cleanup(imageSrv.Close)

	return NewChatWorkflows(
		conversation.NewManager(st),
		services.NewChatClient("test-key", chatSrv.URL),
		services.NewImageClient("test-key", imageSrv.URL, 0, 30),
	)
}

func chatReply(reply string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"output":{"text":%q}}`, reply)
	}
}

func imageSuccess(url string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			fmt.Fprint(w, `{"output":{"task_id":"task-1","task_status":"PENDING"}}`)
			return
		}
		fmt.Fprintf(w, `{"output":{"task_id":"task-1","task_status":"SUCCEEDED","results":[{"url":%q}]}}`, url)
	}
}

func TestSendMessageCommitsBothTurns(t *testing.T) {
	st := store.NewMemoryStore()
	flows := newFlows(t, st, chatReply("hi!"), imageSuccess("unused"))

	out, err := flows.SendMessage(context.Background(), SendMessageInput{Message: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi!", out.Reply)

	conv, err := st.Get(context.Background(), out.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, models.SenderUser, conv.Messages[0].Sender)
	assert.Equal(t, models.SenderAI, conv.Messages[1].Sender)
}

func TestSendMessageFailureCommitsNothing(t *testing.T) {
	st := store.NewMemoryStore()
	fail := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"message":"down"}`)
	}
	flows := newFlows(t, st, fail, imageSuccess("unused"))

	_, err := flows.SendMessage(context.Background(), SendMessageInput{Message: "hello"})
	var provErr *apperrors.ProviderError
	require.ErrorAs(t, err, &provErr)

	summaries, err := st.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, summaries)
}

func TestGenerateImageStampsScenarioOnReuse(t *testing.T) {
	st := store.NewMemoryStore()
	flows := newFlows(t, st, chatReply("hi!"), imageSuccess("https://cdn.example.com/a.png"))

	chatOut, err := flows.SendMessage(context.Background(), SendMessageInput{Message: "hello"})
	require.NoError(t, err)

	imgOut, err := flows.GenerateImage(context.Background(), GenerateImageInput{
		Prompt:         "paint that",
		ConversationID: chatOut.ConversationID,
	})
	require.NoError(t, err)
	assert.Equal(t, chatOut.ConversationID, imgOut.ConversationID)

	conv, err := st.Get(context.Background(), chatOut.ConversationID)
	require.NoError(t, err)
	assert.Equal(t, models.ScenarioAIPainting, conv.Scenario)
	require.Len(t, conv.Messages, 4)
	assert.Equal(t, models.TypeImage, conv.Messages[3].Type)
}
