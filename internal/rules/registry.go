package rules

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

var (
	registry     = make(map[string]Rule)
	registryLock sync.RWMutex
)

// Register makes a rule selectable by name from configuration.
// Registering an existing name replaces it.
func Register(r Rule) {
	registryLock.Lock()
	defer registryLock.Unlock()
	registry[strings.ToLower(r.Name())] = r
}

// Get looks up a registered rule
func Get(name string) (Rule, error) {
	registryLock.RLock()
	r, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	registryLock.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown rule: %s (available: %v)", name, List())
	}
	return r, nil
}

// List returns registered rule names, sorted
func List() []string {
	registryLock.RLock()
	defer registryLock.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build assembles a rule set from names in the order given.
// An empty list yields Default().
func Build(names []string) (*RuleSet, error) {
	if len(names) == 0 {
		return Default(), nil
	}
	rs := NewRuleSet()
	for _, name := range names {
		r, err := Get(name)
		if err != nil {
			return nil, err
		}
		rs.Append(r)
	}
	return rs, nil
}

func init() {
	Register(BullishReversal)
	Register(BearishReversal)
}
