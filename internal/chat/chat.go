// Package chat abstracts the Telegram transport to the small capability the
// orchestrator needs: send text, edit in place, answer callbacks, send files.
package chat

// Button is one inline keyboard choice.
type Button struct {
	Label string
	Data  string
}

// Messenger is the conversational surface. The production implementation
// wraps the Telegram Bot API; tests use a recording fake.
type Messenger interface {
	// SendText sends a plain message and returns its id for later edits.
	SendText(chatID int64, text string) (int, error)

	// SendButtons sends a message with an inline keyboard, one row per
	// element of rows.
	SendButtons(chatID int64, text string, rows [][]Button) (int, error)

	// EditText replaces the text of a previously sent message.
	EditText(chatID int64, msgID int, text string) error

	// EditButtons replaces both text and keyboard of a message.
	EditButtons(chatID int64, msgID int, text string, rows [][]Button) error

	// AnswerCallback acknowledges a callback query, optionally with a toast.
	AnswerCallback(callbackID, text string) error

	// DeleteMessage removes a message; deleting an already-gone message is
	// not an error worth surfacing.
	DeleteMessage(chatID int64, msgID int)

	// SendAudio and SendVideo stream a local file through the transport's
	// native large-file path. SendVideo sets the streaming hint.
	SendAudio(chatID int64, path, caption string) error
	SendVideo(chatID int64, path, caption string) error

	// SendDocument is the fallback for files that are neither.
	SendDocument(chatID int64, path, caption string) error
}
