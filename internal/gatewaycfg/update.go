package gatewaycfg

import (
	"encoding/json"
	"fmt"
)

// PairingUpdate carries the credentials provisioned by a confirmed pairing.
type PairingUpdate struct {
	AccountID     string
	OutboundURL   string
	OutboundToken string
	WebhookSecret string
	WebhookPath   string
}

// ApplyPairing returns a new document with the account's three credential
// fields overwritten, the account, channel and plugin entry enabled, and
// everything else untouched.
func ApplyPairing(d Document, u PairingUpdate) (Document, error) {
	accountID := u.AccountID
	if accountID == "" {
		accountID = DefaultAccountID
	}
	webhookPath := u.WebhookPath
	if webhookPath == "" {
		webhookPath = DefaultWebhookPath
	}

	next := d.clone()

	channels, err := next.object("channels")
	if err != nil {
		return nil, err
	}
	ch, err := next.Channel()
	if err != nil {
		return nil, err
	}

	enabled := true
	ch.Enabled = &enabled
	ch.WebhookPath = webhookPath
	if ch.Accounts == nil {
		ch.Accounts = map[string]AccountConfig{}
	}
	account := ch.Accounts[accountID]
	account.Enabled = &enabled
	account.OutboundURL = u.OutboundURL
	account.OutboundToken = u.OutboundToken
	account.WebhookSecret = u.WebhookSecret
	ch.Accounts[accountID] = account

	if err := encodeInto(channels, ChannelID, ch); err != nil {
		return nil, err
	}
	if err := encodeInto(next, "channels", channels); err != nil {
		return nil, err
	}

	plugins, err := next.object("plugins")
	if err != nil {
		return nil, err
	}
	entries, err := objectField(plugins, "entries")
	if err != nil {
		return nil, err
	}
	var entry PluginEntry
	if raw, ok := entries[ChannelID]; ok {
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("parse plugins.entries.%s: %w", ChannelID, err)
		}
	}
	entry.Enabled = &enabled
	if err := encodeInto(entries, ChannelID, entry); err != nil {
		return nil, err
	}
	if err := encodeInto(plugins, "entries", entries); err != nil {
		return nil, err
	}
	if err := encodeInto(next, "plugins", plugins); err != nil {
		return nil, err
	}

	return next, nil
}

// ApplyUnpairing returns a new document with the account's webhookSecret,
// outboundToken and outboundUrl removed and enabled set to false. Sibling
// accounts and unrelated keys are preserved.
func ApplyUnpairing(d Document, accountID string) (Document, error) {
	if accountID == "" {
		accountID = DefaultAccountID
	}

	next := d.clone()

	channels, err := next.object("channels")
	if err != nil {
		return nil, err
	}
	ch, err := next.Channel()
	if err != nil {
		return nil, err
	}

	if ch.Accounts == nil {
		ch.Accounts = map[string]AccountConfig{}
	}
	account := ch.Accounts[accountID]
	disabled := false
	account.Enabled = &disabled
	account.WebhookSecret = ""
	account.OutboundToken = ""
	account.OutboundURL = ""
	ch.Accounts[accountID] = account

	if err := encodeInto(channels, ChannelID, ch); err != nil {
		return nil, err
	}
	if err := encodeInto(next, "channels", channels); err != nil {
		return nil, err
	}

	return next, nil
}

func objectField(obj map[string]json.RawMessage, key string) (map[string]json.RawMessage, error) {
	raw, ok := obj[key]
	if !ok || len(raw) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, fmt.Errorf("config key %q is not an object: %w", key, err)
	}
	if nested == nil {
		nested = map[string]json.RawMessage{}
	}
	return nested, nil
}

func encodeInto(obj map[string]json.RawMessage, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode config key %q: %w", key, err)
	}
	obj[key] = raw
	return nil
}
