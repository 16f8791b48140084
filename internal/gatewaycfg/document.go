// Package gatewaycfg owns the Dailyflows subtree of the host gateway's
// persisted configuration document. Updates are pure copy-on-write: only the
// channels.dailyflows and plugins.entries.dailyflows subtrees are typed and
// rewritten, every other key is carried through as raw JSON.
package gatewaycfg

import (
	"encoding/json"
	"fmt"
)

const (
	ChannelID          = "dailyflows"
	DefaultAccountID   = "default"
	DefaultWebhookPath = "/dailyflows/webhook"
)

// Document is the whole configuration file as parsed JSON.
type Document map[string]json.RawMessage

func Decode(data []byte) (Document, error) {
	if len(data) == 0 {
		return Document{}, nil
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config document: %w", err)
	}
	if doc == nil {
		doc = Document{}
	}
	return doc, nil
}

func (d Document) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (d Document) clone() Document {
	next := make(Document, len(d))
	for k, v := range d {
		next[k] = v
	}
	return next
}

// object decodes a top-level key as a JSON object into a fresh map. A missing
// key yields an empty map.
func (d Document) object(key string) (map[string]json.RawMessage, error) {
	raw, ok := d[key]
	if !ok || len(raw) == 0 {
		return map[string]json.RawMessage{}, nil
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, fmt.Errorf("config key %q is not an object: %w", key, err)
	}
	if obj == nil {
		obj = map[string]json.RawMessage{}
	}
	return obj, nil
}

// Channel decodes the channels.dailyflows subtree, zero-valued when absent.
func (d Document) Channel() (ChannelConfig, error) {
	channels, err := d.object("channels")
	if err != nil {
		return ChannelConfig{}, err
	}
	raw, ok := channels[ChannelID]
	if !ok {
		return ChannelConfig{}, nil
	}
	var ch ChannelConfig
	if err := json.Unmarshal(raw, &ch); err != nil {
		return ChannelConfig{}, fmt.Errorf("parse channels.%s: %w", ChannelID, err)
	}
	return ch, nil
}

// AccountConfig is one entry of channels.dailyflows.accounts. Unknown keys
// survive round trips through Extra.
type AccountConfig struct {
	Name          string
	Enabled       *bool
	WebhookSecret string
	OutboundURL   string
	OutboundToken string
	Extra         map[string]json.RawMessage
}

var accountKnownKeys = []string{"name", "enabled", "webhookSecret", "outboundUrl", "outboundToken"}

func (a AccountConfig) MarshalJSON() ([]byte, error) {
	obj := cloneRawMap(a.Extra)
	setString(obj, "name", a.Name)
	setBool(obj, "enabled", a.Enabled)
	setString(obj, "webhookSecret", a.WebhookSecret)
	setString(obj, "outboundUrl", a.OutboundURL)
	setString(obj, "outboundToken", a.OutboundToken)
	return json.Marshal(obj)
}

func (a *AccountConfig) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if err := getString(obj, "name", &a.Name); err != nil {
		return err
	}
	if err := getBool(obj, "enabled", &a.Enabled); err != nil {
		return err
	}
	if err := getString(obj, "webhookSecret", &a.WebhookSecret); err != nil {
		return err
	}
	if err := getString(obj, "outboundUrl", &a.OutboundURL); err != nil {
		return err
	}
	if err := getString(obj, "outboundToken", &a.OutboundToken); err != nil {
		return err
	}
	a.Extra = withoutKeys(obj, accountKnownKeys)
	return nil
}

// ChannelConfig is the channels.dailyflows subtree.
type ChannelConfig struct {
	Enabled       *bool
	WebhookPath   string
	WebhookSecret string
	Accounts      map[string]AccountConfig
	Extra         map[string]json.RawMessage
}

var channelKnownKeys = []string{"enabled", "webhookPath", "webhookSecret", "accounts"}

func (c ChannelConfig) MarshalJSON() ([]byte, error) {
	obj := cloneRawMap(c.Extra)
	setBool(obj, "enabled", c.Enabled)
	setString(obj, "webhookPath", c.WebhookPath)
	setString(obj, "webhookSecret", c.WebhookSecret)
	if len(c.Accounts) > 0 {
		raw, err := json.Marshal(c.Accounts)
		if err != nil {
			return nil, err
		}
		obj["accounts"] = raw
	}
	return json.Marshal(obj)
}

func (c *ChannelConfig) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if err := getBool(obj, "enabled", &c.Enabled); err != nil {
		return err
	}
	if err := getString(obj, "webhookPath", &c.WebhookPath); err != nil {
		return err
	}
	if err := getString(obj, "webhookSecret", &c.WebhookSecret); err != nil {
		return err
	}
	if raw, ok := obj["accounts"]; ok {
		if err := json.Unmarshal(raw, &c.Accounts); err != nil {
			return fmt.Errorf("parse accounts: %w", err)
		}
	}
	c.Extra = withoutKeys(obj, channelKnownKeys)
	return nil
}

// PluginEntry is one entry of plugins.entries.
type PluginEntry struct {
	Enabled *bool
	Extra   map[string]json.RawMessage
}

func (p PluginEntry) MarshalJSON() ([]byte, error) {
	obj := cloneRawMap(p.Extra)
	setBool(obj, "enabled", p.Enabled)
	return json.Marshal(obj)
}

func (p *PluginEntry) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if err := getBool(obj, "enabled", &p.Enabled); err != nil {
		return err
	}
	p.Extra = withoutKeys(obj, []string{"enabled"})
	return nil
}

func cloneRawMap(src map[string]json.RawMessage) map[string]json.RawMessage {
	dst := make(map[string]json.RawMessage, len(src)+5)
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func withoutKeys(src map[string]json.RawMessage, keys []string) map[string]json.RawMessage {
	dst := cloneRawMap(src)
	for _, k := range keys {
		delete(dst, k)
	}
	if len(dst) == 0 {
		return nil
	}
	return dst
}

func setString(obj map[string]json.RawMessage, key, value string) {
	if value == "" {
		delete(obj, key)
		return
	}
	raw, _ := json.Marshal(value)
	obj[key] = raw
}

func setBool(obj map[string]json.RawMessage, key string, value *bool) {
	if value == nil {
		delete(obj, key)
		return
	}
	raw, _ := json.Marshal(*value)
	obj[key] = raw
}

func getString(obj map[string]json.RawMessage, key string, dst *string) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	return nil
}

func getBool(obj map[string]json.RawMessage, key string, dst **bool) error {
	raw, ok := obj[key]
	if !ok {
		return nil
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("parse %s: %w", key, err)
	}
	*dst = &v
	return nil
}
