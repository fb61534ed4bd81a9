// Package registry implements the cipher name -> constructor dispatch:
// maps a CLI-supplied cipher name to a Constructor that parses that
// cipher's config string.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dzita/eye-search/internal/cipher"
	"github.com/dzita/eye-search/internal/cipher/arx"
)

var (
	mu           sync.RWMutex
	constructors = map[string]cipher.Constructor{
		"arx": arx.New,
	}
)

// Register adds (or replaces) a named cipher constructor. Exported so
// out-of-tree ciphers can register themselves from an init() func instead
// of requiring a central switch statement per new cipher.
func Register(name string, ctor cipher.Constructor) {
	mu.Lock()
	defer mu.Unlock()
	constructors[name] = ctor
}

// Names returns the registered cipher names, sorted, for --help-style
// listings.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(constructors))
	for n := range constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Create looks up name and constructs a Cipher from config, returning an
// error when the name is unknown or the config is invalid.
func Create(name, config string) (cipher.Cipher, error) {
	mu.RLock()
	ctor, ok := constructors[name]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown cipher %q (known: %v)", name, Names())
	}
	c, err := ctor(config)
	if err != nil {
		return nil, fmt.Errorf("registry: cipher %q: %w", name, err)
	}
	return c, nil
}
