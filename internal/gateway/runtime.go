// Package gateway defines the host-runtime collaborators the channel adapter
// talks to: conversation routing, session metadata and reply dispatch. The
// adapter only consumes these interfaces; the real engine lives in the host.
package gateway

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/openclaw/dailyflows-gateway-go/internal/model"
)

type PeerKind string

const (
	PeerDM    PeerKind = "dm"
	PeerGroup PeerKind = "group"
)

type Peer struct {
	Kind PeerKind
	ID   string
}

// Route binds an inbound conversation to an agent and session key.
type Route struct {
	AgentID    string
	AccountID  string
	SessionKey string
}

type Router interface {
	ResolveRoute(channel, accountID string, peer Peer) Route
}

// Sessions reads and writes per-session metadata.
type Sessions interface {
	ReadUpdatedAt(ctx context.Context, sessionKey string) (time.Time, bool)
	RecordInbound(ctx context.Context, sessionKey string, inbound model.InboundContext) error
}

// Reply is one agent reply handed back through the dispatcher.
type Reply struct {
	Text      string
	MediaURL  string
	MediaURLs []string
}

type DeliverFunc func(ctx context.Context, reply Reply) error

// ReplyDispatcher routes an inbound context to the agent engine and feeds
// replies through deliver as they become available.
type ReplyDispatcher interface {
	Dispatch(ctx context.Context, inbound model.InboundContext, deliver DeliverFunc) error
}

// StaticRouter maps every conversation of an account onto one agent.
type StaticRouter struct {
	AgentID string
}

func (r StaticRouter) ResolveRoute(channel, accountID string, peer Peer) Route {
	return Route{
		AgentID:    r.AgentID,
		AccountID:  accountID,
		SessionKey: channel + ":" + accountID + ":" + string(peer.Kind) + ":" + peer.ID,
	}
}

// LogDispatcher stands in for the host reply engine: it records the inbound
// context and produces no replies.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(ctx context.Context, inbound model.InboundContext, deliver DeliverFunc) error {
	log.Debug().
		Str("sessionKey", inbound.SessionKey).
		Str("accountId", inbound.AccountID).
		Str("from", inbound.From).
		Msg("inbound context dispatched")
	return nil
}
