// Package bot adapts Telegram updates to the intake flow.
package bot

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/aquare11e/torrent-intake-bot/internal/intake"
	"github.com/aquare11e/torrent-intake-bot/internal/logging"
	"github.com/aquare11e/torrent-intake-bot/internal/report"
)

// Sender is the part of *tgbotapi.BotAPI the bot uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Config struct {
	// AllowedUsers are Telegram usernames. Empty allows everyone.
	AllowedUsers []string
	// SendRate limits outgoing calls per second. Zero disables throttling.
	SendRate   float64
	DaemonName string
	HTTPClient *http.Client
}

type Bot struct {
	api          Sender
	allowedUsers map[string]bool
	daemonName   string
	flow         *intake.Flow
	reporter     *report.Reporter
	limiter      *rate.Limiter
	httpClient   *http.Client
	log          zerolog.Logger
}

func New(api Sender, flow *intake.Flow, reporter *report.Reporter, cfg Config) *Bot {
	allowedUsers := make(map[string]bool)
	for _, user := range cfg.AllowedUsers {
		if user = strings.TrimSpace(user); user != "" {
			allowedUsers[user] = true
		}
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.SendRate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.SendRate), 1)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
	}

	return &Bot{
		api:          api,
		allowedUsers: allowedUsers,
		daemonName:   cfg.DaemonName,
		flow:         flow,
		reporter:     reporter,
		limiter:      limiter,
		httpClient:   httpClient,
		log:          logging.Component("bot"),
	}
}

// UpdateConfig is the long polling configuration the bot expects.
func UpdateConfig() tgbotapi.UpdateConfig {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = updateTimeout
	return u
}

// Run handles updates until ctx is done or the channel is closed.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	b.log.Info().Int("allowed-users", len(b.allowedUsers)).Msg("bot started")

	for {
		select {
		case <-ctx.Done():
			b.log.Info().Msg("bot stopped")
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, update)
		}
	}
}

func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}

	b.log.Debug().Str("user", msg.From.UserName).Int64("chat", msg.Chat.ID).Msg("message received")

	if !b.authorized(msg.From) {
		b.log.Warn().Str("user", msg.From.UserName).Int64("user-id", msg.From.ID).Msg("unauthorized user")
		b.send(ctx, tgbotapi.NewMessage(msg.Chat.ID, msgNotAuthorized))
		return
	}

	owner := intake.OwnerID(msg.From.ID)

	switch {
	case msg.IsCommand():
		b.handleCommand(ctx, msg)
	case msg.Document != nil:
		b.reply(ctx, msg.Chat.ID, b.flow.SubmitFile(ctx, owner, msg.Document.FileName, b.telegramFile(msg.Document.FileID)))
	default:
		b.reply(ctx, msg.Chat.ID, b.flow.SubmitText(ctx, owner, msg.Text))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	response := tgbotapi.NewMessage(msg.Chat.ID, "")

	switch msg.Command() {
	case commandStart:
		response.Text = b.welcomeText()
	case commandHelp:
		response.Text = b.helpText()
	case commandStatus:
		response.Text = b.reporter.Build(ctx)
	case commandCancel:
		response.Text = b.flow.Cancel(ctx, intake.OwnerID(msg.From.ID)).Text
	default:
		response.Text = msgUnknownCommand
	}

	b.send(ctx, response)
}

func (b *Bot) authorized(user *tgbotapi.User) bool {
	if len(b.allowedUsers) == 0 {
		return true
	}
	return b.allowedUsers[user.UserName]
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Send(c); err != nil {
		b.log.Error().Err(err).Msg("failed to send message")
	}
}

func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.limiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Request(c); err != nil {
		b.log.Error().Err(err).Msg("telegram request failed")
	}
}

func (b *Bot) welcomeText() string {
	labels := make([]string, 0, len(b.flow.Destinations()))
	for _, d := range b.flow.Destinations() {
		labels = append(labels, d.Label)
	}
	return fmt.Sprintf(msgWelcome, b.daemonName, strings.Join(labels, " or "))
}

func (b *Bot) helpText() string {
	return fmt.Sprintf(msgHelp, b.daemonName, b.daemonName)
}
