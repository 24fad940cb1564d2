package password

import (
	"fmt"
	"log/slog"

	"go.uber.org/atomic"
)

// Source is the configuration a Provider loads policies from.
type Source interface {
	GetStringMap(key string) map[string]any
	OnChange(fn func())
}

// Guard vets a loaded policy against the rest of the runtime before it is
// served.
type Guard func(Policy) error

// RequireBreachChecker rejects policies that promise an uncompromised
// password when no breach corpus is reachable, so help text never states a
// requirement Check would skip.
func RequireBreachChecker(breach BreachChecker) Guard {
	return func(p Policy) error {
		if p.Rule().Uncompromised && breach == nil {
			return fmt.Errorf("%w: uncompromised is set but no breach checker is configured", ErrConfiguration)
		}
		return nil
	}
}

// Provider hands out the active Policy. A reload replaces the whole value;
// readers always observe either the old or the new policy.
type Provider struct {
	current *atomic.Pointer[Policy]
	guards  []Guard
}

// NewProvider returns a Provider that always serves p.
func NewProvider(p Policy) *Provider {
	return &Provider{current: atomic.NewPointer(&p)}
}

// NewProviderFromSource loads the policy under key from src and reloads it
// whenever src changes. The initial load must succeed and pass every guard;
// a failing reload keeps the previous policy.
func NewProviderFromSource(src Source, key string, guards ...Guard) (*Provider, error) {
	p, err := Load(src.GetStringMap(key))
	if err != nil {
		return nil, err
	}
	if err := runGuards(p, guards); err != nil {
		return nil, err
	}

	prov := NewProvider(p)
	prov.guards = guards
	src.OnChange(func() {
		if err := prov.Reload(src.GetStringMap(key)); err != nil {
			slog.Error("password policy reload rejected, keeping previous policy", "key", key, "error", err)
			return
		}
		slog.Info("password policy reloaded", "key", key)
	})

	return prov, nil
}

// Current returns the active policy.
func (p *Provider) Current() Policy {
	return *p.current.Load()
}

// Reload replaces the active policy with one loaded from config.
func (p *Provider) Reload(config map[string]any) error {
	next, err := Load(config)
	if err != nil {
		return err
	}
	if err := runGuards(next, p.guards); err != nil {
		return err
	}

	p.current.Store(&next)
	return nil
}

func runGuards(p Policy, guards []Guard) error {
	for _, g := range guards {
		if err := g(p); err != nil {
			return err
		}
	}
	return nil
}
