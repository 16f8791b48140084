package gatewaycfg

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `{
  "gateway": {"port": 18789},
  "channels": {
    "telegram": {"enabled": true, "botToken": "tg-token"},
    "dailyflows": {
      "webhookPath": "/dailyflows/webhook",
      "webhookSecret": "channel-secret",
      "displayColor": "blue",
      "accounts": {
        "work": {
          "name": "Work",
          "enabled": true,
          "webhookSecret": "work-secret",
          "outboundUrl": "https://flows.example.com/hook",
          "outboundToken": "work-token",
          "theme": "dark"
        },
        "home": {"enabled": false}
      }
    }
  },
  "plugins": {"entries": {"telegram": {"enabled": true}}}
}`

func decodeSample(t *testing.T) Document {
	t.Helper()
	doc, err := Decode([]byte(sampleConfig))
	require.NoError(t, err)
	return doc
}

func TestDecodeChannel(t *testing.T) {
	t.Run("decodes the dailyflows subtree", func(t *testing.T) {
		doc := decodeSample(t)
		ch, err := doc.Channel()
		require.NoError(t, err)

		assert.Equal(t, "/dailyflows/webhook", ch.WebhookPath)
		assert.Equal(t, "channel-secret", ch.WebhookSecret)
		assert.Len(t, ch.Accounts, 2)
		assert.Equal(t, "work-secret", ch.Accounts["work"].WebhookSecret)
		assert.JSONEq(t, `"blue"`, string(ch.Extra["displayColor"]))
		assert.JSONEq(t, `"dark"`, string(ch.Accounts["work"].Extra["theme"]))
	})

	t.Run("missing subtree yields zero config", func(t *testing.T) {
		doc, err := Decode([]byte(`{"gateway": {}}`))
		require.NoError(t, err)
		ch, err := doc.Channel()
		require.NoError(t, err)
		assert.Nil(t, ch.Accounts)
		assert.Empty(t, ch.WebhookSecret)
	})

	t.Run("empty input yields empty document", func(t *testing.T) {
		doc, err := Decode(nil)
		require.NoError(t, err)
		assert.Empty(t, doc)
	})
}

func TestApplyPairing(t *testing.T) {
	t.Run("provisions all three fields atomically and enables everything", func(t *testing.T) {
		doc := decodeSample(t)
		next, err := ApplyPairing(doc, PairingUpdate{
			AccountID:     "work",
			OutboundURL:   "https://new.example.com/hook",
			OutboundToken: "new-token",
			WebhookSecret: "new-secret",
			WebhookPath:   "/dailyflows/webhook",
		})
		require.NoError(t, err)

		ch, err := next.Channel()
		require.NoError(t, err)
		account := ch.Accounts["work"]
		assert.Equal(t, "https://new.example.com/hook", account.OutboundURL)
		assert.Equal(t, "new-token", account.OutboundToken)
		assert.Equal(t, "new-secret", account.WebhookSecret)
		require.NotNil(t, account.Enabled)
		assert.True(t, *account.Enabled)
		require.NotNil(t, ch.Enabled)
		assert.True(t, *ch.Enabled)

		var plugins struct {
			Entries map[string]PluginEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(next["plugins"], &plugins))
		require.NotNil(t, plugins.Entries["dailyflows"].Enabled)
		assert.True(t, *plugins.Entries["dailyflows"].Enabled)
	})

	t.Run("creates account and channel when absent", func(t *testing.T) {
		next, err := ApplyPairing(Document{}, PairingUpdate{
			OutboundURL:   "https://flows.example.com/hook",
			OutboundToken: "tok",
			WebhookSecret: "sec",
		})
		require.NoError(t, err)

		ch, err := next.Channel()
		require.NoError(t, err)
		assert.Equal(t, DefaultWebhookPath, ch.WebhookPath)
		account := ch.Accounts[DefaultAccountID]
		assert.Equal(t, "tok", account.OutboundToken)
	})

	t.Run("preserves unrelated keys and sibling channels", func(t *testing.T) {
		doc := decodeSample(t)
		next, err := ApplyPairing(doc, PairingUpdate{
			AccountID:     "work",
			OutboundURL:   "https://new.example.com/hook",
			OutboundToken: "new-token",
			WebhookSecret: "new-secret",
		})
		require.NoError(t, err)

		assert.JSONEq(t, `{"port": 18789}`, string(next["gateway"]))

		var channels map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(next["channels"], &channels))
		assert.JSONEq(t, `{"enabled": true, "botToken": "tg-token"}`, string(channels["telegram"]))

		ch, err := next.Channel()
		require.NoError(t, err)
		assert.JSONEq(t, `"blue"`, string(ch.Extra["displayColor"]))
		assert.JSONEq(t, `"dark"`, string(ch.Accounts["work"].Extra["theme"]))
		assert.Equal(t, "Work", ch.Accounts["work"].Name)

		var plugins struct {
			Entries map[string]PluginEntry `json:"entries"`
		}
		require.NoError(t, json.Unmarshal(next["plugins"], &plugins))
		require.NotNil(t, plugins.Entries["telegram"].Enabled)
		assert.True(t, *plugins.Entries["telegram"].Enabled)
	})

	t.Run("does not mutate the input document", func(t *testing.T) {
		doc := decodeSample(t)
		before := string(doc["channels"])
		_, err := ApplyPairing(doc, PairingUpdate{
			AccountID:     "work",
			OutboundURL:   "https://new.example.com/hook",
			OutboundToken: "t",
			WebhookSecret: "s",
		})
		require.NoError(t, err)
		assert.Equal(t, before, string(doc["channels"]))
	})
}

func TestApplyUnpairing(t *testing.T) {
	t.Run("clears exactly the credential fields and disables", func(t *testing.T) {
		doc := decodeSample(t)
		next, err := ApplyUnpairing(doc, "work")
		require.NoError(t, err)

		ch, err := next.Channel()
		require.NoError(t, err)
		account := ch.Accounts["work"]
		assert.Empty(t, account.WebhookSecret)
		assert.Empty(t, account.OutboundToken)
		assert.Empty(t, account.OutboundURL)
		require.NotNil(t, account.Enabled)
		assert.False(t, *account.Enabled)

		// unrelated account keys survive
		assert.Equal(t, "Work", account.Name)
		assert.JSONEq(t, `"dark"`, string(account.Extra["theme"]))
	})

	t.Run("removes cleared fields from the serialized document", func(t *testing.T) {
		doc := decodeSample(t)
		next, err := ApplyUnpairing(doc, "work")
		require.NoError(t, err)

		var channels map[string]map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(next["channels"], &channels))
		var accounts map[string]map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(channels["dailyflows"]["accounts"], &accounts))

		work := accounts["work"]
		assert.NotContains(t, work, "webhookSecret")
		assert.NotContains(t, work, "outboundToken")
		assert.NotContains(t, work, "outboundUrl")
		assert.JSONEq(t, `false`, string(work["enabled"]))
	})

	t.Run("leaves sibling accounts untouched", func(t *testing.T) {
		doc := decodeSample(t)
		next, err := ApplyUnpairing(doc, "work")
		require.NoError(t, err)

		ch, err := next.Channel()
		require.NoError(t, err)
		home := ch.Accounts["home"]
		require.NotNil(t, home.Enabled)
		assert.False(t, *home.Enabled)
		assert.Equal(t, "channel-secret", ch.WebhookSecret)
	})

	t.Run("records the account entry even when previously absent", func(t *testing.T) {
		next, err := ApplyUnpairing(Document{}, "ghost")
		require.NoError(t, err)

		ch, err := next.Channel()
		require.NoError(t, err)
		account, ok := ch.Accounts["ghost"]
		require.True(t, ok)
		require.NotNil(t, account.Enabled)
		assert.False(t, *account.Enabled)
	})
}

func TestResolveAccount(t *testing.T) {
	doc := decodeSample(t)
	ch, err := doc.Channel()
	require.NoError(t, err)

	t.Run("account secret wins over channel secret", func(t *testing.T) {
		resolved := ch.ResolveAccount("work")
		assert.Equal(t, "work-secret", resolved.WebhookSecret)
		assert.True(t, resolved.Enabled)
		assert.True(t, resolved.Configured())
	})

	t.Run("falls back to channel secret", func(t *testing.T) {
		resolved := ch.ResolveAccount("home")
		assert.Equal(t, "channel-secret", resolved.WebhookSecret)
		assert.False(t, resolved.Enabled)
	})

	t.Run("unknown account defaults to enabled with channel secret", func(t *testing.T) {
		resolved := ch.ResolveAccount("missing")
		assert.True(t, resolved.Enabled)
		assert.Equal(t, "channel-secret", resolved.WebhookSecret)
		assert.True(t, resolved.Configured())
	})

	t.Run("blank id resolves default account", func(t *testing.T) {
		resolved := ch.ResolveAccount("")
		assert.Equal(t, DefaultAccountID, resolved.AccountID)
	})

	t.Run("unconfigured account", func(t *testing.T) {
		resolved := ChannelConfig{}.ResolveAccount("anything")
		assert.False(t, resolved.Configured())
	})
}

func TestResolveWebhookSecret(t *testing.T) {
	doc := decodeSample(t)
	ch, err := doc.Channel()
	require.NoError(t, err)

	t.Run("stored account secret by default", func(t *testing.T) {
		assert.Equal(t, "work-secret", ch.ResolveWebhookSecret("work"))
	})

	t.Run("global env override beats stored secret", func(t *testing.T) {
		t.Setenv("DAILYFLOWS_WEBHOOK_SECRET", "global-env")
		assert.Equal(t, "global-env", ch.ResolveWebhookSecret("work"))
	})

	t.Run("account env override beats global", func(t *testing.T) {
		t.Setenv("DAILYFLOWS_WEBHOOK_SECRET", "global-env")
		t.Setenv("DAILYFLOWS_WEBHOOK_SECRET_WORK", "work-env")
		assert.Equal(t, "work-env", ch.ResolveWebhookSecret("work"))
	})

	t.Run("account id is normalized for the env key", func(t *testing.T) {
		t.Setenv("DAILYFLOWS_WEBHOOK_SECRET_MY_TEAM_1", "team-env")
		assert.Equal(t, "team-env", ch.ResolveWebhookSecret("my-team.1"))
	})

	t.Run("blank env values are skipped", func(t *testing.T) {
		t.Setenv("DAILYFLOWS_WEBHOOK_SECRET_WORK", "   ")
		assert.Equal(t, "work-secret", ch.ResolveWebhookSecret("work"))
	})

	t.Run("no secret anywhere yields blank", func(t *testing.T) {
		assert.Empty(t, ChannelConfig{}.ResolveWebhookSecret("nobody"))
	})
}

func TestWebhookPathOrDefault(t *testing.T) {
	assert.Equal(t, "/dailyflows/webhook", ChannelConfig{}.WebhookPathOrDefault())
	assert.Equal(t, "/hooks/flows", ChannelConfig{WebhookPath: "/hooks/flows"}.WebhookPathOrDefault())
	assert.Equal(t, "/hooks/flows", ChannelConfig{WebhookPath: "hooks/flows"}.WebhookPathOrDefault())
	assert.Equal(t, "/dailyflows/webhook", ChannelConfig{WebhookPath: "  "}.WebhookPathOrDefault())
}

func TestListAccountIDs(t *testing.T) {
	t.Run("sorted ids", func(t *testing.T) {
		doc := decodeSample(t)
		ch, err := doc.Channel()
		require.NoError(t, err)
		assert.Equal(t, []string{"home", "work"}, ch.ListAccountIDs())
	})

	t.Run("default id when none configured", func(t *testing.T) {
		assert.Equal(t, []string{DefaultAccountID}, ChannelConfig{}.ListAccountIDs())
	})
}

func TestNormalizeAccountEnv(t *testing.T) {
	assert.Equal(t, "DEFAULT", NormalizeAccountEnv("default"))
	assert.Equal(t, "MY_TEAM_1", NormalizeAccountEnv("my-team.1"))
	assert.Equal(t, "A_B", NormalizeAccountEnv("a b"))
}

func TestStore(t *testing.T) {
	t.Run("missing file loads as empty document", func(t *testing.T) {
		store := NewStore(filepath.Join(t.TempDir(), "openclaw.json"))
		doc, err := store.Load()
		require.NoError(t, err)
		assert.Empty(t, doc)
	})

	t.Run("update round trips through disk", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openclaw.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
		store := NewStore(path)

		err := store.Update(func(doc Document) (Document, error) {
			return ApplyPairing(doc, PairingUpdate{
				AccountID:     "work",
				OutboundURL:   "https://new.example.com/hook",
				OutboundToken: "tok",
				WebhookSecret: "sec",
			})
		})
		require.NoError(t, err)

		doc, err := store.Load()
		require.NoError(t, err)
		ch, err := doc.Channel()
		require.NoError(t, err)
		assert.Equal(t, "tok", ch.Accounts["work"].OutboundToken)
		assert.JSONEq(t, `{"port": 18789}`, string(doc["gateway"]))
	})

	t.Run("update error leaves the file untouched", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openclaw.json")
		require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o600))
		store := NewStore(path)

		wantErr := assert.AnError
		err := store.Update(func(doc Document) (Document, error) {
			return nil, wantErr
		})
		assert.ErrorIs(t, err, wantErr)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, sampleConfig, string(data))
	})

	t.Run("rejects malformed files", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "openclaw.json")
		require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
		store := NewStore(path)

		_, err := store.Load()
		assert.Error(t, err)
	})
}
