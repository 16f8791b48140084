package gatewaycfg

import (
	"os"
	"sort"
	"strings"
)

const (
	// EnvWebhookSecret overrides the stored webhook secret for every account.
	EnvWebhookSecret = "DAILYFLOWS_WEBHOOK_SECRET"
	// envWebhookSecretPrefix scopes an override to one account id.
	envWebhookSecretPrefix = "DAILYFLOWS_WEBHOOK_SECRET_"
)

// ResolvedAccount is an account after applying channel-level fallbacks.
type ResolvedAccount struct {
	AccountID     string
	Name          string
	Enabled       bool
	WebhookSecret string
	OutboundURL   string
	OutboundToken string
}

// Configured reports whether the account can do anything useful: it has a
// webhook secret or an outbound destination.
func (a ResolvedAccount) Configured() bool {
	return a.WebhookSecret != "" || a.OutboundURL != ""
}

// ResolveAccount looks up an account, falling back to channel-level enabled
// and webhookSecret defaults. A blank id resolves the default account.
func (c ChannelConfig) ResolveAccount(accountID string) ResolvedAccount {
	if accountID == "" {
		accountID = DefaultAccountID
	}
	account := c.Accounts[accountID]

	enabled := true
	switch {
	case account.Enabled != nil:
		enabled = *account.Enabled
	case c.Enabled != nil:
		enabled = *c.Enabled
	}

	secret := account.WebhookSecret
	if secret == "" {
		secret = c.WebhookSecret
	}

	return ResolvedAccount{
		AccountID:     accountID,
		Name:          account.Name,
		Enabled:       enabled,
		WebhookSecret: secret,
		OutboundURL:   account.OutboundURL,
		OutboundToken: account.OutboundToken,
	}
}

// ResolveWebhookSecret returns the effective signing secret for an account:
// account-scoped env override, then global env override, then the stored
// account secret with its channel fallback. First non-blank match wins.
func (c ChannelConfig) ResolveWebhookSecret(accountID string) string {
	if accountID == "" {
		accountID = DefaultAccountID
	}
	if v := strings.TrimSpace(os.Getenv(envWebhookSecretPrefix + NormalizeAccountEnv(accountID))); v != "" {
		return v
	}
	if v := strings.TrimSpace(os.Getenv(EnvWebhookSecret)); v != "" {
		return v
	}
	return strings.TrimSpace(c.ResolveAccount(accountID).WebhookSecret)
}

// WebhookPathOrDefault returns the configured webhook path normalized to a
// leading slash, or the default path when unset.
func (c ChannelConfig) WebhookPathOrDefault() string {
	path := strings.TrimSpace(c.WebhookPath)
	if path == "" {
		return DefaultWebhookPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// ListAccountIDs returns the configured account ids sorted, or the default id
// when none are configured.
func (c ChannelConfig) ListAccountIDs() []string {
	if len(c.Accounts) == 0 {
		return []string{DefaultAccountID}
	}
	ids := make([]string, 0, len(c.Accounts))
	for id := range c.Accounts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// NormalizeAccountEnv maps an account id onto an env var suffix: uppercased,
// with every non-alphanumeric byte replaced by an underscore.
func NormalizeAccountEnv(accountID string) string {
	upper := strings.ToUpper(accountID)
	var b strings.Builder
	b.Grow(len(upper))
	for _, r := range upper {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}
