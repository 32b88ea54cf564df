// Package exchange ties the protocol implementations to the session layer:
// a registry of named protocols and a manager for holding open sessions.
package exchange

import (
	"fmt"
	"sort"
	"sync"

	"tradewire/pkg/core"
	"tradewire/pkg/exchange/gemini"
	"tradewire/pkg/exchange/poloniex"
	"tradewire/pkg/session"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]func() core.Protocol{
		"poloniex": func() core.Protocol { return poloniex.New() },
		"gemini":   func() core.Protocol { return gemini.New() },
	}
)

// Register adds a protocol constructor under the given name, replacing any
// existing registration. Third-party protocols plug in here.
func Register(name string, ctor func() core.Protocol) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = ctor
}

// Protocols returns the sorted names of all registered protocols.
func Protocols() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open creates a session for the exchange named in the config.
func Open(config *core.Config) (*session.Session, error) {
	if config == nil {
		return nil, fmt.Errorf("config is required")
	}

	registryMu.RLock()
	ctor, ok := registry[config.Exchange]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown exchange %q", config.Exchange)
	}

	return session.New(config, ctor())
}
