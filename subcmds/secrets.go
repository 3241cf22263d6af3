// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/bvk/lpbot/alert"
)

// Secrets holds the optional operator-notification credentials. The trading
// side needs no secrets: the LP account must be registered with the venue
// node, which signs extrinsics itself.
type Secrets struct {
	Telegram *alert.TelegramKeys `json:"telegram,omitempty"`
	Pushover *alert.PushoverKeys `json:"pushover,omitempty"`
}

func SecretsFromFile(fpath string) (*Secrets, error) {
	data, err := os.ReadFile(fpath)
	if err != nil {
		return nil, err
	}
	s := new(Secrets)
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("could not unmarshal secrets file %q: %w", fpath, err)
	}
	return s, nil
}

// Notifiers creates alert notifiers from the configured secrets.
func (s *Secrets) Notifiers() ([]alert.Notifier, error) {
	var notifiers []alert.Notifier
	if s.Telegram != nil {
		n, err := alert.NewTelegram(s.Telegram)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	if s.Pushover != nil {
		n, err := alert.NewPushover(s.Pushover)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, n)
	}
	return notifiers, nil
}
