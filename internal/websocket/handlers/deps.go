package handlers

import (
	"time"

	"github.com/Kvazar-213452/Voxta-mobile/internal/presence"
)

// Registry is the subset of the presence registry used by websocket handlers.
type Registry interface {
	Register(userID string, conn presence.ConnID, token string)
	IsOnline(userID string) bool
	TokenOf(conn presence.ConnID) (string, bool)
	Unregister(conn presence.ConnID)
}

// TokenVerifier resolves a bearer token to the user id it was issued for.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Observer receives handler outcomes. It is how the metrics package learns
// about authentications and queries without the handlers importing it.
type Observer interface {
	Authentication(result string)
	StatusQuery(result string)
	Disconnected()
}

type noopObserver struct{}

func (noopObserver) Authentication(string) {}
func (noopObserver) StatusQuery(string)    {}
func (noopObserver) Disconnected()         {}

// Deps holds the narrow dependencies required by websocket handlers.
type Deps struct {
	registry Registry
	verifier TokenVerifier
	sessions *Sessions
	observer Observer
	now      func() time.Time
}

// NewDeps builds a dependency bundle for handler calls. A nil observer
// discards outcomes and a nil now falls back to time.Now.
func NewDeps(
	registry Registry,
	verifier TokenVerifier,
	sessions *Sessions,
	observer Observer,
	now func() time.Time,
) Deps {
	return Deps{
		registry: registry,
		verifier: verifier,
		sessions: sessions,
		observer: observer,
		now:      now,
	}
}

func (d Deps) Registry() Registry      { return d.registry }
func (d Deps) Verifier() TokenVerifier { return d.verifier }
func (d Deps) Sessions() *Sessions     { return d.sessions }
func (d Deps) Observer() Observer {
	if d.observer != nil {
		return d.observer
	}
	return noopObserver{}
}
func (d Deps) Now() time.Time {
	if d.now != nil {
		return d.now()
	}
	return time.Now()
}
