package platform

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry = make(map[string]Collector)
	mu       sync.RWMutex
)

// Register makes a collector available under a source name ("live", "demo", "cache").
func Register(source string, c Collector) {
	mu.Lock()
	defer mu.Unlock()
	registry[source] = c
}

// Get returns the collector registered for source.
func Get(source string) (Collector, error) {
	mu.RLock()
	defer mu.RUnlock()
	c, ok := registry[source]
	if !ok {
		return nil, fmt.Errorf("source %q not registered", source)
	}
	return c, nil
}

// List returns registered source names in sorted order.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Reset clears the registry.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	registry = make(map[string]Collector)
}
