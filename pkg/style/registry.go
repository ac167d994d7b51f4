package style

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry maps human-readable style names to formatter instances.
// Thread-safe for concurrent use. Unknown style names resolve to the
// default style (APA).
type Registry struct {
	mu           sync.RWMutex
	formatters   map[string]Formatter // lowercase name -> formatter
	displayNames map[string]string    // lowercase name -> registered name
	fallback     Formatter
}

// NewRegistry creates a registry pre-populated with the built-in styles
// and APA as the fallback.
func NewRegistry() *Registry {
	registry := &Registry{
		formatters:   make(map[string]Formatter),
		displayNames: make(map[string]string),
	}

	apa := NewAPAFormatter()
	registry.fallback = apa

	for _, formatter := range []Formatter{
		apa,
		NewChicagoFormatter(),
		NewChicagoAuthorDateFormatter(),
		NewHarvardFormatter(),
	} {
		// Built-ins cannot collide.
		_ = registry.Register(formatter)
	}

	// Author-date styles without a dedicated formatter render as APA,
	// matching the upstream style map.
	registry.alias("ASA (Sociology)", apa)
	registry.alias("AAA (Anthropology)", apa)
	registry.alias("Turabian Author-Date", apa)

	return registry
}

// Register adds a formatter under its own name. Returns an error if the
// formatter is nil, unnamed, or the name is already taken.
func (registry *Registry) Register(formatter Formatter) error {
	if formatter == nil {
		return fmt.Errorf("formatter cannot be nil")
	}
	styleName := formatter.Name()
	if styleName == "" {
		return fmt.Errorf("formatter name cannot be empty")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()

	key := strings.ToLower(styleName)
	if _, exists := registry.formatters[key]; exists {
		return fmt.Errorf("style %q already registered", styleName)
	}
	registry.formatters[key] = formatter
	registry.displayNames[key] = styleName
	return nil
}

// Get returns the formatter for a style name, falling back to the default
// style when the name is unknown. Matching is case-insensitive.
func (registry *Registry) Get(styleName string) Formatter {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	if formatter, ok := registry.formatters[strings.ToLower(strings.TrimSpace(styleName))]; ok {
		return formatter
	}
	return registry.fallback
}

// List returns all registered style names in sorted order.
func (registry *Registry) List() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	styleNames := make([]string, 0, len(registry.displayNames))
	for _, displayName := range registry.displayNames {
		styleNames = append(styleNames, displayName)
	}
	sort.Strings(styleNames)
	return styleNames
}

// alias registers an additional name for an existing formatter.
func (registry *Registry) alias(styleName string, formatter Formatter) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	key := strings.ToLower(styleName)
	registry.formatters[key] = formatter
	registry.displayNames[key] = styleName
}

// ReferenceHeading returns the reference-list heading conventional for a
// style: "References Cited" for AAA, "Bibliography" for Turabian, and
// "References" for everything else.
func ReferenceHeading(styleName string) string {
	switch strings.ToLower(strings.TrimSpace(styleName)) {
	case "aaa (anthropology)":
		return "References Cited"
	case "turabian author-date":
		return "Bibliography"
	default:
		return "References"
	}
}
