// Package providers builds the authenticated Vultr provider used by the
// commands. Tests swap the factory for a fake.
package providers

import (
	"errors"
	"fmt"
	"sync"

	"nathanbeddoewebdev/vultrcli/internal/config"
	"nathanbeddoewebdev/vultrcli/internal/domain"
	"nathanbeddoewebdev/vultrcli/internal/services/auth"
	"nathanbeddoewebdev/vultrcli/internal/transport"
	"nathanbeddoewebdev/vultrcli/internal/vultr"

	"github.com/sirupsen/logrus"
)

// ErrNotLoggedIn is returned when no API key has been stored.
var ErrNotLoggedIn = errors.New("no Vultr API key stored; run 'vultrcli auth login'")

// Factory builds a provider for an API key.
type Factory func(token string, cfg *config.Config, log logrus.FieldLogger) (domain.Provider, error)

var (
	mu      sync.RWMutex
	factory Factory = NewVultr
)

// NewVultr is the production factory.
func NewVultr(token string, cfg *config.Config, log logrus.FieldLogger) (domain.Provider, error) {
	opts := []transport.Option{transport.WithLogger(log)}
	if cfg != nil {
		opts = append(opts, transport.WithTimeout(cfg.Timeout()))
		if cfg.APIURL != "" {
			opts = append(opts, transport.WithBaseURL(cfg.APIURL))
		}
	}
	return vultr.NewClient(transport.New(token, opts...), log), nil
}

// Set replaces the factory. Intended for use in tests only.
func Set(f Factory) {
	if f == nil {
		panic("providers: nil factory")
	}
	mu.Lock()
	defer mu.Unlock()
	factory = f
}

// Reset restores the production factory. Intended for use in tests only.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	factory = NewVultr
}

// Get reads the API key from store and builds a provider with it.
func Get(store auth.Store, cfg *config.Config, log logrus.FieldLogger) (domain.Provider, error) {
	token, err := store.GetToken(auth.Account)
	if err != nil {
		if errors.Is(err, auth.ErrTokenNotFound) {
			return nil, ErrNotLoggedIn
		}
		return nil, fmt.Errorf("providers: failed to read API key: %w", err)
	}
	return WithToken(token, cfg, log)
}

// WithToken builds a provider for an explicit key, e.g. one being validated
// before it is stored.
func WithToken(token string, cfg *config.Config, log logrus.FieldLogger) (domain.Provider, error) {
	mu.RLock()
	f := factory
	mu.RUnlock()
	return f(token, cfg, log)
}
