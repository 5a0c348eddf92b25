// Package telegram delivers the rendered digest to a Telegram chat.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

type Options struct {
	Token    string
	ChatID   int64
	Endpoint string // tgbotapi endpoint format, defaults to the public API
	Client   *http.Client
}

// Sender connects lazily on the first Send and makes a single attempt per
// message so a digest is never posted twice.
type Sender struct {
	opts Options
	log  *zerolog.Logger

	once sync.Once
	bot  *tgbotapi.BotAPI
	err  error
}

func New(opts Options, log *zerolog.Logger) *Sender {
	if opts.Endpoint == "" {
		opts.Endpoint = tgbotapi.APIEndpoint
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &Sender{opts: opts, log: log}
}

func (s *Sender) connect() (*tgbotapi.BotAPI, error) {
	s.once.Do(func() {
		s.bot, s.err = tgbotapi.NewBotAPIWithClient(s.opts.Token, s.opts.Endpoint, s.opts.Client)
		if s.err == nil {
			s.log.Debug().Str("bot", s.bot.Self.UserName).Msg("telegram bot connected")
		}
	})
	return s.bot, s.err
}

func (s *Sender) Send(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	bot, err := s.connect()
	if err != nil {
		return fmt.Errorf("connect telegram bot: %w", err)
	}

	msg := tgbotapi.NewMessage(s.opts.ChatID, text)
	msg.DisableWebPagePreview = true
	sent, err := bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	s.log.Info().Int("message_id", sent.MessageID).Int64("chat_id", s.opts.ChatID).Msg("telegram message sent")
	return nil
}
