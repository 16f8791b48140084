// Package pairing holds the in-memory registry of short-lived, single-use
// pairing tickets that bind a gateway origin to a Dailyflows account.
package pairing

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	// DefaultAccountID is used when a pairing request does not name an account.
	DefaultAccountID = "default"

	// PayloadType tags the scannable payload handed to the companion app.
	PayloadType    = "openclaw.dailyflows.pair"
	PayloadVersion = 1

	codeBytes = 16
)

// Ticket is a single-use pairing entry. Never mutated after creation.
type Ticket struct {
	Code       string
	GatewayURL string
	AccountID  string
	Payload    string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

type payloadEnvelope struct {
	Type       string `json:"type"`
	Version    int    `json:"version"`
	GatewayURL string `json:"gatewayUrl"`
	PairCode   string `json:"pairCode"`
	AccountID  string `json:"accountId"`
}

// Registry is the process-wide pairing store. All mutations happen under one
// mutex so that lookup+delete in Consume is a single critical section.
type Registry struct {
	mu      sync.Mutex
	tickets map[string]Ticket
	ttl     time.Duration
	now     func() time.Time
}

func NewRegistry(ttl time.Duration) *Registry {
	return &Registry{
		tickets: make(map[string]Ticket),
		ttl:     ttl,
		now:     time.Now,
	}
}

// sweepLocked removes every expired entry. Callers must hold r.mu.
func (r *Registry) sweepLocked(now time.Time) int {
	removed := 0
	for code, ticket := range r.tickets {
		if !ticket.ExpiresAt.After(now) {
			delete(r.tickets, code)
			removed++
		}
	}
	return removed
}

// Create issues a new ticket for the given gateway origin. The account id
// defaults to "default" when blank.
func (r *Registry) Create(gatewayURL, accountID string) (Ticket, error) {
	accountID = strings.TrimSpace(accountID)
	if accountID == "" {
		accountID = DefaultAccountID
	}

	code, err := generateCode()
	if err != nil {
		return Ticket{}, fmt.Errorf("generate pair code: %w", err)
	}

	payload, err := json.Marshal(payloadEnvelope{
		Type:       PayloadType,
		Version:    PayloadVersion,
		GatewayURL: gatewayURL,
		PairCode:   code,
		AccountID:  accountID,
	})
	if err != nil {
		return Ticket{}, fmt.Errorf("marshal pairing payload: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	ticket := Ticket{
		Code:       code,
		GatewayURL: gatewayURL,
		AccountID:  accountID,
		Payload:    string(payload),
		CreatedAt:  now,
		ExpiresAt:  now.Add(r.ttl),
	}
	r.tickets[code] = ticket

	log.Info().
		Str("accountId", accountID).
		Str("gatewayUrl", gatewayURL).
		Time("expiresAt", ticket.ExpiresAt).
		Msg("pairing ticket created")

	return ticket, nil
}

// Consume removes the ticket for code and returns it if it had not expired.
// A found entry is deleted unconditionally, so a code can never be consumed
// twice even when the first consumption raced its expiry.
func (r *Registry) Consume(code string) (Ticket, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.sweepLocked(now)

	ticket, ok := r.tickets[code]
	if !ok {
		return Ticket{}, false
	}
	delete(r.tickets, code)
	if !ticket.ExpiresAt.After(now) {
		return Ticket{}, false
	}
	return ticket, true
}

// Sweep removes expired tickets and reports how many were dropped. Used by
// the background cleanup job; Create and Consume also sweep on entry.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

// Len reports the number of stored tickets, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tickets)
}

func generateCode() (string, error) {
	buf := make([]byte, codeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

// NormalizeGatewayURL reduces a raw gateway URL to its origin. Only https
// origins are accepted, plus http for localhost and 127.0.0.1 during local
// development. Returns false for anything else.
func NormalizeGatewayURL(raw string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" {
		return "", false
	}
	switch u.Scheme {
	case "https":
	case "http":
		if u.Hostname() != "localhost" && u.Hostname() != "127.0.0.1" {
			return "", false
		}
	default:
		return "", false
	}
	return u.Scheme + "://" + u.Host, true
}
