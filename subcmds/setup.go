// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/bvk/lpbot/alert"
	"github.com/bvk/lpbot/cli"
)

type Setup struct {
	dataDir     string
	secretsPath string
	skipTesting bool
}

func (c *Setup) Synopsis() string {
	return "Setup prints and/or configures lpbot notification keys"
}

func (c *Setup) Command() (*flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("setup", flag.ContinueOnError)
	fset.StringVar(&c.dataDir, "data-dir", "", "path to the data directory")
	fset.StringVar(&c.secretsPath, "secrets-file", "", "path to credentials file")
	fset.BoolVar(&c.skipTesting, "skip-testing", false, "don't test the parameters")
	return fset, cli.CmdFunc(c.run)
}

func (c *Setup) CommandHelp() string {
	return `

Command "setup" configures operator-notification keys for the Telegram and
Pushover services. Command prints the current config when run without any
arguments.

TELEGRAM PARAMETERS

  $ lpbot setup telegram-token=111111:aaaaaa telegram-chat-id=12345

The token value may be omitted (i.e., "telegram-token=") in which case it is
read from the terminal without echo.

PUSHOVER PARAMETERS

  $ lpbot setup pushover-app=awja5ue...ito7svf pushover-user=uscjs2...tvp4kv

`
}

func (c *Setup) run(ctx context.Context, args []string) error {
	if len(c.dataDir) == 0 {
		c.dataDir = filepath.Join(os.Getenv("HOME"), ".lpbot")
	}
	if _, err := os.Stat(c.dataDir); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("could not stat data directory %q: %w", c.dataDir, err)
		}
		if len(args) == 0 {
			return fmt.Errorf("lpbot is not configured")
		}
		if err := os.MkdirAll(c.dataDir, 0700); err != nil {
			return fmt.Errorf("could not create data directory %q: %w", c.dataDir, err)
		}
	}
	dataDir, err := filepath.Abs(c.dataDir)
	if err != nil {
		return fmt.Errorf("could not determine data-dir %q absolute path: %w", c.dataDir, err)
	}

	if len(c.secretsPath) == 0 {
		c.secretsPath = filepath.Join(dataDir, "secrets.json")
	}
	secrets, err := SecretsFromFile(c.secretsPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if len(args) == 0 {
			return fmt.Errorf("lpbot is not configured")
		}
	}

	if len(args) == 0 {
		js, _ := json.MarshalIndent(secrets, "", "  ")
		fmt.Printf("%s\n", js)
		return nil
	}

	if secrets == nil {
		secrets = &Secrets{}
	}

	validKeys := []string{"telegram-token", "telegram-chat-id", "pushover-app", "pushover-user"}
	kvMap := make(map[string]string)
	for _, arg := range args {
		before, after, found := strings.Cut(arg, "=")
		if !found {
			return fmt.Errorf("invalid config argument %q", arg)
		}
		if !slices.Contains(validKeys, before) {
			return fmt.Errorf("invalid/unrecognized config item key %q", before)
		}
		if v, ok := kvMap[before]; ok && v != after {
			return fmt.Errorf("config item key %q is found with different values", before)
		}
		kvMap[before] = after
	}

	telegramToken, hasToken := kvMap["telegram-token"]
	telegramChatID := kvMap["telegram-chat-id"]
	if hasToken || len(telegramChatID) != 0 {
		if !hasToken || len(telegramChatID) == 0 {
			return fmt.Errorf(`both "telegram-token" and "telegram-chat-id" parameters are required`)
		}
		if len(telegramToken) == 0 {
			fmt.Printf("telegram bot token: ")
			data, err := term.ReadPassword(int(os.Stdin.Fd()))
			fmt.Println()
			if err != nil {
				return fmt.Errorf("could not read telegram token from the terminal: %w", err)
			}
			telegramToken = string(data)
		}
		chatID, err := strconv.ParseInt(telegramChatID, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid telegram chat id %q: %w", telegramChatID, err)
		}
		secrets.Telegram = &alert.TelegramKeys{
			BotToken: telegramToken,
			ChatID:   chatID,
		}
		if !c.skipTesting {
			client, err := alert.NewTelegram(secrets.Telegram)
			if err != nil {
				return err
			}
			if err := client.SendMessage(ctx, time.Now(), "Test message from lpbot setup; please ignore."); err != nil {
				return err
			}
		}
	}

	pushoverApp := kvMap["pushover-app"]
	pushoverUser := kvMap["pushover-user"]
	if len(pushoverUser) != 0 || len(pushoverApp) != 0 {
		if len(pushoverApp) == 0 || len(pushoverUser) == 0 {
			return fmt.Errorf(`both "pushover-app" and "pushover-user" parameters are required`)
		}
		secrets.Pushover = &alert.PushoverKeys{
			ApplicationKey: pushoverApp,
			UserKey:        pushoverUser,
		}
		if !c.skipTesting {
			client, err := alert.NewPushover(secrets.Pushover)
			if err != nil {
				return err
			}
			if err := client.SendMessage(ctx, time.Now(), "Test message from lpbot setup; please ignore."); err != nil {
				return err
			}
		}
	}

	js, err := json.MarshalIndent(secrets, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(c.secretsPath, js, os.FileMode(0600)); err != nil {
		return err
	}
	return nil
}
