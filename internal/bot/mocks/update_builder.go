package mocks

import (
	"github.com/go-telegram/bot/models"
)

// Defaults for the sender of built updates.
const (
	DefaultFirstName = "Asha"
	DefaultUsername  = "asha_saves"
)

// UpdateBuilder builds Telegram updates for handler tests. Every update is
// sent from a private chat whose id equals the user id unless set otherwise.
type UpdateBuilder struct {
	update *models.Update
}

// NewUpdateBuilder starts an empty update.
func NewUpdateBuilder() *UpdateBuilder {
	return &UpdateBuilder{update: &models.Update{}}
}

func defaultSender(userID int64) models.User {
	return models.User{ID: userID, FirstName: DefaultFirstName, Username: DefaultUsername}
}

// WithMessage sets a text message, such as a command or a pasted SMS.
func (b *UpdateBuilder) WithMessage(chatID, userID int64, text string) *UpdateBuilder {
	from := defaultSender(userID)
	b.update.Message = &models.Message{
		ID:   1,
		Chat: models.Chat{ID: chatID, Type: "private"},
		From: &from,
		Text: text,
	}
	return b
}

// WithFrom replaces the sender of the message or button press, for
// whitelist and greeting tests.
func (b *UpdateBuilder) WithFrom(userID int64, username, firstName string) *UpdateBuilder {
	user := models.User{ID: userID, Username: username, FirstName: firstName}
	if b.update.Message != nil {
		b.update.Message.From = &user
	}
	if b.update.CallbackQuery != nil {
		b.update.CallbackQuery.From = user
	}
	return b
}

// WithCallbackQuery sets an inline button press on messageID.
func (b *UpdateBuilder) WithCallbackQuery(callbackID string, chatID, userID int64, messageID int, data string) *UpdateBuilder {
	b.update.CallbackQuery = &models.CallbackQuery{
		ID:   callbackID,
		From: defaultSender(userID),
		Message: models.MaybeInaccessibleMessage{
			Message: &models.Message{
				ID:   messageID,
				Chat: models.Chat{ID: chatID, Type: "private"},
			},
		},
		Data: data,
	}
	return b
}

// Build returns the update.
func (b *UpdateBuilder) Build() *models.Update {
	return b.update
}

// MessageUpdate is a text message from userID in chatID.
func MessageUpdate(chatID, userID int64, text string) *models.Update {
	return NewUpdateBuilder().WithMessage(chatID, userID, text).Build()
}

// CallbackQueryUpdate is a button press by userID on messageID.
func CallbackQueryUpdate(chatID, userID int64, messageID int, data string) *models.Update {
	return NewUpdateBuilder().
		WithCallbackQuery("callback-query-id", chatID, userID, messageID, data).
		Build()
}
