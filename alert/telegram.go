// Copyright (c) 2025 BVK Chaitanya

package alert

import (
	"context"
	"fmt"
	"time"

	"github.com/go-telegram/bot"
)

// TelegramKeys holds the telegram bot credentials and the destination chat.
type TelegramKeys struct {
	BotToken string `json:"bot_token"`
	ChatID   int64  `json:"chat_id"`
}

func (v *TelegramKeys) Check() error {
	if v.BotToken == "" {
		return fmt.Errorf("telegram bot token cannot be empty")
	}
	if v.ChatID == 0 {
		return fmt.Errorf("telegram chat id cannot be zero")
	}
	return nil
}

// Telegram is a send-only telegram notifier.
type Telegram struct {
	bot *bot.Bot

	chatID int64
}

func NewTelegram(keys *TelegramKeys) (*Telegram, error) {
	if err := keys.Check(); err != nil {
		return nil, err
	}
	b, err := bot.New(keys.BotToken)
	if err != nil {
		return nil, fmt.Errorf("could not create telegram bot: %w", err)
	}
	return &Telegram{bot: b, chatID: keys.ChatID}, nil
}

func (t *Telegram) SendMessage(ctx context.Context, at time.Time, text string) error {
	msg := at.Format("2006-01-02 15:04:05 MST") + " " + text
	p := &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   msg,
	}
	if _, err := t.bot.SendMessage(ctx, p); err != nil {
		return fmt.Errorf("could not send telegram message: %w", err)
	}
	return nil
}
