package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/aquare11e/torrent-intake-bot/internal/config"
	"github.com/aquare11e/torrent-intake-bot/internal/intake"
)

// handleCallback resolves a destination button press. The callback is
// answered first to clear the client's loading state, then the prompt message
// is replaced with the outcome.
func (b *Bot) handleCallback(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	if callback.From == nil {
		return
	}

	b.request(ctx, tgbotapi.NewCallback(callback.ID, ""))

	if !b.authorized(callback.From) {
		b.log.Warn().Str("user", callback.From.UserName).Int64("user-id", callback.From.ID).Msg("unauthorized callback")
		return
	}

	result := b.flow.Select(ctx, intake.OwnerID(callback.From.ID), callback.Data)

	if callback.Message == nil || callback.Message.Chat == nil {
		b.send(ctx, tgbotapi.NewMessage(callback.From.ID, result.Text))
		return
	}

	b.send(ctx, tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, result.Text))
}

func (b *Bot) reply(ctx context.Context, chatID int64, r intake.Reply) {
	msg := tgbotapi.NewMessage(chatID, r.Text)
	if r.Kind == intake.ReplyPrompt {
		msg.ReplyMarkup = destinationKeyboard(r.Destinations)
	}
	b.send(ctx, msg)
}

func destinationKeyboard(destinations []*config.Destination) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton

	for _, d := range destinations {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(d.Label, intake.SelectionToken(d)))
		if len(row) == destinationsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// telegramFile downloads an uploaded document when the flow asks for it.
func (b *Bot) telegramFile(fileID string) intake.FileSource {
	return intake.FileSourceFunc(func(ctx context.Context) (io.ReadCloser, error) {
		fileURL, err := b.api.GetFileDirectURL(fileID)
		if err != nil {
			return nil, fmt.Errorf("error getting file url: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
		if err != nil {
			return nil, err
		}

		resp, err := b.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("error downloading file: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("error downloading file: unexpected status %s", resp.Status)
		}

		return resp.Body, nil
	})
}
