package notify

import "errors"

var (
	// ErrMissingToken is returned when the Telegram notifier has no token.
	ErrMissingToken = errors.New("telegram bot token is required")

	// ErrMissingChatID is returned when the Telegram notifier has no chat.
	ErrMissingChatID = errors.New("telegram chat id is required")
)
