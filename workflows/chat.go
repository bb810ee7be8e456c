// Package workflows composes the conversation manager and provider clients
// into the two request flows, and exposes each as a DBOS durable workflow
// for deployments that run against Postgres.
package workflows

import (
	"context"

	"github.com/dbos-inc/dbos-transact-golang/dbos"

	"dashchat/conversation"
	"dashchat/models"
	"dashchat/services"
)

// ChatWorkflows holds the dependencies shared by the chat and image flows.
type ChatWorkflows struct {
	manager *conversation.Manager
	chat    *services.ChatClient
	images  *services.ImageClient
}

// NewChatWorkflows creates the flow container.
func NewChatWorkflows(manager *conversation.Manager, chat *services.ChatClient, images *services.ImageClient) *ChatWorkflows {
	return &ChatWorkflows{
		manager: manager,
		chat:    chat,
		images:  images,
	}
}

// SendMessageInput is the chat flow input.
type SendMessageInput struct {
	Message        string
	Scenario       string
	ConversationID string
}

// SendMessageOutput is the chat flow result.
type SendMessageOutput struct {
	Reply          string
	ConversationID string
}

// GenerateImageInput is the image flow input.
type GenerateImageInput struct {
	Prompt         string
	NegativePrompt string
	Size           string
	ConversationID string
}

// GenerateImageOutput is the image flow result.
type GenerateImageOutput struct {
	ImageURL       string
	ConversationID string
}

// SendMessage resolves the conversation, appends the user turn, completes it
// against the provider and commits user+reply together. On provider failure
// the user turn is rolled back so history never records a prompt without a
// reply.
func (w *ChatWorkflows) SendMessage(ctx context.Context, input SendMessageInput) (SendMessageOutput, error) {
	conv, isNew, err := w.manager.Resolve(ctx, input.ConversationID, input.Scenario, input.Message)
	if err != nil {
		return SendMessageOutput{}, err
	}
	w.manager.AppendUserTurn(conv, input.Message, models.TypeText)

	reply, err := w.chat.Complete(ctx, conv)
	if err != nil {
		w.manager.RollbackLastUserTurn(conv, isNew)
		return SendMessageOutput{}, err
	}

	w.manager.AppendAiTurn(conv, reply, models.TypeText)
	if err := w.manager.Commit(ctx, conv); err != nil {
		return SendMessageOutput{}, err
	}
	return SendMessageOutput{Reply: reply, ConversationID: conv.ID}, nil
}

// GenerateImage is the image counterpart of SendMessage. The conversation is
// stamped with the aipainting scenario, the prompt is stored as a text turn
// and the generated URL as an image turn.
func (w *ChatWorkflows) GenerateImage(ctx context.Context, input GenerateImageInput) (GenerateImageOutput, error) {
	conv, isNew, err := w.manager.Resolve(ctx, input.ConversationID, models.ScenarioAIPainting, input.Prompt)
	if err != nil {
		return GenerateImageOutput{}, err
	}
	w.manager.AppendUserTurn(conv, input.Prompt, models.TypeText)

	imageURL, err := w.images.Generate(ctx, input.Prompt, input.NegativePrompt, input.Size)
	if err != nil {
		w.manager.RollbackLastUserTurn(conv, isNew)
		return GenerateImageOutput{}, err
	}

	w.manager.AppendAiTurn(conv, imageURL, models.TypeImage)
	if err := w.manager.Commit(ctx, conv); err != nil {
		return GenerateImageOutput{}, err
	}
	return GenerateImageOutput{ImageURL: imageURL, ConversationID: conv.ID}, nil
}

// resolvedConversation carries a conversation between workflow steps.
type resolvedConversation struct {
	Conversation models.Conversation
	IsNew        bool
}

// SendMessageWorkflow is the durable version of SendMessage. Each step is
// checkpointed, so a crashed process resumes after the last completed step
// instead of re-billing the provider call.
func (w *ChatWorkflows) SendMessageWorkflow(ctx dbos.DBOSContext, input SendMessageInput) (SendMessageOutput, error) {
	resolved, err := dbos.RunAsStep(ctx, func(stepCtx context.Context) (resolvedConversation, error) {
		conv, isNew, err := w.manager.Resolve(stepCtx, input.ConversationID, input.Scenario, input.Message)
		if err != nil {
			return resolvedConversation{}, err
		}
		w.manager.AppendUserTurn(conv, input.Message, models.TypeText)
		return resolvedConversation{Conversation: *conv, IsNew: isNew}, nil
	})
	if err != nil {
		return SendMessageOutput{}, err
	}

	reply, err := dbos.RunAsStep(ctx, func(stepCtx context.Context) (string, error) {
		conv := resolved.Conversation
		return w.chat.Complete(stepCtx, &conv)
	})
	if err != nil {
		// Nothing was committed yet, so the failed turn never becomes visible.
		return SendMessageOutput{}, err
	}

	_, err = dbos.RunAsStep(ctx, func(stepCtx context.Context) (bool, error) {
		conv := resolved.Conversation
		w.manager.AppendAiTurn(&conv, reply, models.TypeText)
		return true, w.manager.Commit(stepCtx, &conv)
	})
	if err != nil {
		return SendMessageOutput{}, err
	}
	return SendMessageOutput{Reply: reply, ConversationID: resolved.Conversation.ID}, nil
}

// GenerateImageWorkflow is the durable version of GenerateImage.
func (w *ChatWorkflows) GenerateImageWorkflow(ctx dbos.DBOSContext, input GenerateImageInput) (GenerateImageOutput, error) {
	resolved, err := dbos.RunAsStep(ctx, func(stepCtx context.Context) (resolvedConversation, error) {
		conv, isNew, err := w.manager.Resolve(stepCtx, input.ConversationID, models.ScenarioAIPainting, input.Prompt)
		if err != nil {
			return resolvedConversation{}, err
		}
		w.manager.AppendUserTurn(conv, input.Prompt, models.TypeText)
		return resolvedConversation{Conversation: *conv, IsNew: isNew}, nil
	})
	if err != nil {
		return GenerateImageOutput{}, err
	}

	imageURL, err := dbos.RunAsStep(ctx, func(stepCtx context.Context) (string, error) {
		return w.images.Generate(stepCtx, input.Prompt, input.NegativePrompt, input.Size)
	})
	if err != nil {
		return GenerateImageOutput{}, err
	}

	_, err = dbos.RunAsStep(ctx, func(stepCtx context.Context) (bool, error) {
		conv := resolved.Conversation
		w.manager.AppendAiTurn(&conv, imageURL, models.TypeImage)
		return true, w.manager.Commit(stepCtx, &conv)
	})
	if err != nil {
		return GenerateImageOutput{}, err
	}
	return GenerateImageOutput{ImageURL: imageURL, ConversationID: resolved.Conversation.ID}, nil
}
