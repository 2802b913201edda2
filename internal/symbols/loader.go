package symbols

import (
	"fmt"
	"strings"

	"spreadscan/pkg/model"
)

// Loader resolves ticker lists into instruments with display names
type Loader struct {
	names map[string]string
}

// NewLoader creates a loader using names for display (symbol -> name)
func NewLoader(names map[string]string) *Loader {
	normalized := make(map[string]string, len(names))
	for sym, name := range names {
		normalized[Normalize(sym)] = name
	}
	return &Loader{names: normalized}
}

// Load turns symbols into instruments, keeping order and dropping blanks and duplicates
func (l *Loader) Load(symbols []string) []model.Instrument {
	seen := make(map[string]bool, len(symbols))
	out := make([]model.Instrument, 0, len(symbols))
	for _, raw := range symbols {
		sym := Normalize(raw)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		out = append(out, model.Instrument{Symbol: sym, Name: l.name(sym)})
	}
	return out
}

// LoadList parses a comma-separated symbol list
func (l *Loader) LoadList(list string) []model.Instrument {
	return l.Load(strings.Split(list, ","))
}

// LoadUniverse loads a preset universe
func (l *Loader) LoadUniverse(name string) ([]model.Instrument, error) {
	syms := GetUniverse(Universe(strings.ToLower(name)))
	if syms == nil {
		return nil, fmt.Errorf("unknown universe %q (available: %v)", name, Universes())
	}
	return l.Load(syms), nil
}

func (l *Loader) name(sym string) string {
	if name, ok := l.names[sym]; ok && name != "" {
		return name
	}
	if name, ok := PresetNames[sym]; ok {
		return name
	}
	return sym
}

// Normalize upper-cases and trims a ticker symbol
func Normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// FileName turns a symbol into a safe file stem, e.g. "^GSPC" -> "GSPC"
func FileName(symbol string) string {
	stem := strings.Map(func(r rune) rune {
		switch {
		case r >= 'A' && r <= 'Z', r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r == '.' || r == '=':
			return '_'
		}
		return -1
	}, Normalize(symbol))
	if stem == "" {
		return "chart"
	}
	return stem
}
