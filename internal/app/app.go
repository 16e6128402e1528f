package app

import (
	"errors"

	"casaya/pkg/auth"
	"casaya/pkg/events"
	"casaya/pkg/storage"
	"casaya/pkg/store"
)

// Config wires the collaborators of the core application.
type Config struct {
	Store    store.Store
	Images   storage.ImageStore
	Sessions store.SessionStore
	Tokens   *auth.TokenIssuer
	Events   events.Publisher
}

// App is the core application service wiring together persistence, image
// storage and auth logic.
type App struct {
	store    store.Store
	images   storage.ImageStore
	sessions store.SessionStore
	tokens   *auth.TokenIssuer
	events   events.Publisher
}

// New constructs the application. Events defaults to a no-op publisher.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, errors.New("store required")
	}
	if cfg.Images == nil {
		return nil, errors.New("image store required")
	}
	if cfg.Sessions == nil {
		return nil, errors.New("session store required")
	}
	if cfg.Tokens == nil {
		return nil, errors.New("token issuer required")
	}
	ev := cfg.Events
	if ev == nil {
		ev = events.NopPublisher{}
	}
	return &App{
		store:    cfg.Store,
		images:   cfg.Images,
		sessions: cfg.Sessions,
		tokens:   cfg.Tokens,
		events:   ev,
	}, nil
}
