package chat

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Telegram implements Messenger on the Bot API client.
type Telegram struct {
	bot *tgbotapi.BotAPI
}

var _ Messenger = (*Telegram)(nil)

func NewTelegram(bot *tgbotapi.BotAPI) *Telegram { return &Telegram{bot: bot} }

func keyboard(rows [][]Button) tgbotapi.InlineKeyboardMarkup {
	var kb [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var r []tgbotapi.InlineKeyboardButton
		for _, b := range row {
			r = append(r, tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Data))
		}
		kb = append(kb, r)
	}
	return tgbotapi.NewInlineKeyboardMarkup(kb...)
}

func (t *Telegram) SendText(chatID int64, text string) (int, error) {
	sent, err := t.bot.Send(tgbotapi.NewMessage(chatID, text))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *Telegram) SendButtons(chatID int64, text string, rows [][]Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard(rows)
	sent, err := t.bot.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (t *Telegram) EditText(chatID int64, msgID int, text string) error {
	_, err := t.bot.Send(tgbotapi.NewEditMessageText(chatID, msgID, text))
	return err
}

func (t *Telegram) EditButtons(chatID int64, msgID int, text string, rows [][]Button) error {
	kb := keyboard(rows)
	_, err := t.bot.Send(tgbotapi.NewEditMessageTextAndMarkup(chatID, msgID, text, kb))
	return err
}

func (t *Telegram) AnswerCallback(callbackID, text string) error {
	_, err := t.bot.Request(tgbotapi.NewCallback(callbackID, text))
	return err
}

func (t *Telegram) DeleteMessage(chatID int64, msgID int) {
	if _, err := t.bot.Request(tgbotapi.NewDeleteMessage(chatID, msgID)); err != nil {
		log.Debug().Err(err).Int64("chat_id", chatID).Int("msg_id", msgID).Msg("delete message failed")
	}
}

func (t *Telegram) SendAudio(chatID int64, path, caption string) error {
	audio := tgbotapi.NewAudio(chatID, tgbotapi.FilePath(path))
	audio.Caption = caption
	_, err := t.bot.Send(audio)
	return err
}

func (t *Telegram) SendVideo(chatID int64, path, caption string) error {
	video := tgbotapi.NewVideo(chatID, tgbotapi.FilePath(path))
	video.Caption = caption
	video.SupportsStreaming = true
	_, err := t.bot.Send(video)
	return err
}

func (t *Telegram) SendDocument(chatID int64, path, caption string) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	_, err := t.bot.Send(doc)
	return err
}
