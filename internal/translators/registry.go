package translators

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// UnsupportedLanguageError reports a language (or kernel) no translator is
// registered for.
type UnsupportedLanguageError struct {
	Language string
	Known    []string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("no parameter translator registered for language %q (supported: %s)",
		e.Language, strings.Join(e.Known, ", "))
}

// Registry maps kernel names and language names to translators. Keys are
// case-insensitive.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Translator
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]Translator{}}
}

// Register binds a translator to a kernel or language name, replacing any
// previous binding.
func (r *Registry) Register(name string, t Translator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName[strings.ToLower(name)] = t
}

// Find resolves a translator, preferring an exact kernel-name binding over
// the notebook language.
func (r *Registry) Find(kernelName, language string) (Translator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if t, ok := r.byName[strings.ToLower(kernelName)]; ok && kernelName != "" {
		return t, nil
	}
	if t, ok := r.byName[strings.ToLower(language)]; ok && language != "" {
		return t, nil
	}

	missing := language
	if missing == "" {
		missing = kernelName
	}
	return nil, &UnsupportedLanguageError{Language: missing, Known: r.names()}
}

// Names returns every registered key, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.names()
}

func (r *Registry) names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Default holds the built-in translators, registered under both language
// names and the common kernel names for each language.
var Default = NewRegistry()

func init() {
	for name, t := range map[string]Translator{
		"python":  pythonTranslator{},
		"python2": pythonTranslator{},
		"python3": pythonTranslator{},
		"r":       rTranslator{},
		"ir":      rTranslator{},
		"julia":   juliaTranslator{},
		"scala":   scalaTranslator{},
		"spark":   scalaTranslator{},
		"bash":    bashTranslator{},
	} {
		Default.Register(name, t)
	}
}

// Find resolves against the default registry.
func Find(kernelName, language string) (Translator, error) {
	return Default.Find(kernelName, language)
}
