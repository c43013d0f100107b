package storage

import (
	"os"
	"sync"
)

// Constructor builds an Adapter from a backend-specific config value.
type Constructor func(cfg any) (Adapter, error)

var (
	mu           sync.RWMutex
	constructors = make(map[string]Constructor)
	defaultName  string
)

// DefaultBackendEnv names the environment variable that overrides the
// registry-order default backend selection.
const DefaultBackendEnv = "JVSPATIAL_STORAGE_BACKEND"

// Register associates name with a constructor. Registering the same
// name twice panics at init time, mirroring database/sql driver
// registration semantics. The first backend registered becomes the
// default unless overridden by SetDefault or DefaultBackendEnv.
func Register(name string, ctor Constructor) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := constructors[name]; exists {
		panic(ErrDuplicateBackend(name))
	}
	constructors[name] = ctor
	if defaultName == "" {
		defaultName = name
	}
}

// SetDefault overrides the default backend name programmatically.
func SetDefault(name string) { mu.Lock(); defaultName = name; mu.Unlock() }

// Open constructs a new Adapter instance for the named backend.
func Open(name string, cfg any) (Adapter, error) {
	mu.RLock()
	ctor, ok := constructors[name]
	mu.RUnlock()
	if !ok {
		return nil, ErrNoBackend(name)
	}
	return ctor(cfg)
}

// DefaultName resolves the effective default backend name: the
// environment override if set, else the programmatic default, else the
// first backend registered.
func DefaultName() string {
	if v := os.Getenv(DefaultBackendEnv); v != "" {
		return v
	}
	mu.RLock()
	defer mu.RUnlock()
	return defaultName
}
