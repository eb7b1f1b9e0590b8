package ledger

import (
	"context"
	"strings"

	"gitlab.com/yelinaung/spennies-bot/internal/localstore"
	"gitlab.com/yelinaung/spennies-bot/internal/logger"
	"gitlab.com/yelinaung/spennies-bot/internal/models"
)

// ChatHistory returns the locally kept conversation, oldest first.
func (f *Facade) ChatHistory(ctx context.Context) []models.ChatMessage {
	history, _ := localstore.Load[[]models.ChatMessage](ctx, f.store, f.scope, localstore.BucketChatHistory)
	return history
}

// Chat sends one message and records both turns in the local history.
func (f *Facade) Chat(ctx context.Context, message, language string) models.ChatReply {
	message = strings.TrimSpace(message)

	reply, err := f.tier.Chat(ctx, message, language)
	if err != nil {
		f.degrade("chat", err)
		reply = models.ChatReply{Response: ChatErrorReply}
	}
	if strings.TrimSpace(reply.Response) == "" {
		reply.Response = ChatErrorReply
	}

	now := f.now().UTC()
	history := append(f.ChatHistory(ctx),
		models.ChatMessage{Role: models.ChatRoleUser, Text: message, At: now},
		models.ChatMessage{Role: models.ChatRoleAssistant, Text: reply.Response, At: now},
	)
	if len(history) > ChatHistoryLimit {
		history = history[len(history)-ChatHistoryLimit:]
	}
	if err := localstore.Save(ctx, f.store, f.scope, localstore.BucketChatHistory, history); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to save chat history")
	}
	return reply
}

// ClearChat forgets the conversation.
func (f *Facade) ClearChat(ctx context.Context) error {
	return f.store.Remove(ctx, f.scope, localstore.BucketChatHistory)
}
