// Package modules guesses the module a free-text subject refers to, using
// a deduplicated registry of module names and aliases.
package modules

import (
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/prism/internal/record"
)

// Registry holds the maximal, non-redundant set of module and alias names
// plus the alias-to-canonical-module map. It is built once from the repo
// list and rebuilt only when explicitly invalidated by constructing a new
// value; there is no hidden process-wide cache.
type Registry struct {
	names   []string
	aliases map[string]string
}

// NewRegistry builds the registry from the repo list. Names are lowercased.
// A new name evicts any existing entry that is a substring of it and is
// itself skipped when it is a substring of an existing entry, so the final
// set never contains two names where one is a substring of the other.
func NewRegistry(repos []record.Repo) *Registry {
	names := make(map[string]struct{})
	aliases := make(map[string]string)

	for _, repo := range repos {
		module := strings.ToLower(repo.Module)

		addName(names, module)

		for _, alias := range repo.Aliases {
			alias = strings.ToLower(alias)
			addName(names, alias)
			aliases[alias] = module
		}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		sorted = append(sorted, name)
	}

	sort.Strings(sorted)

	return &Registry{names: sorted, aliases: aliases}
}

func addName(names map[string]struct{}, name string) {
	if _, ok := names[name]; ok {
		return
	}

	for existing := range names {
		// A more specific name is already registered.
		if strings.Contains(existing, name) {
			return
		}
	}

	for existing := range names {
		if strings.Contains(name, existing) {
			delete(names, existing)
		}
	}

	names[name] = struct{}{}
}

// Names returns the registered names in deterministic order.
func (reg *Registry) Names() []string {
	return reg.names
}

// Canonical maps an alias to its parent module; unknown names map to
// themselves.
func (reg *Registry) Canonical(name string) string {
	if module, ok := reg.aliases[name]; ok {
		return module
	}

	return name
}

// Guess finds the leftmost occurrence of any registered name in the
// lowercased text. The second result reports whether the match is
// authoritative, which is the case when it is immediately preceded by '['.
func (reg *Registry) Guess(text string) (string, bool) {
	text = strings.ToLower(text)

	pos := len(text)
	best := ""

	for _, name := range reg.names {
		idx := strings.Index(text, name)
		if idx >= 0 && idx < pos {
			pos = idx
			best = name
		}
	}

	if best == "" {
		return "", false
	}

	return best, pos > 0 && text[pos-1] == '['
}

// ApplyGuess fills the record's module from the subject text: an
// authoritative match overwrites any existing tag, an ordinary match only
// fills an unset one. The final module, tagged or guessed, is canonicalized
// through the alias map; unresolved records get the unknown module.
func (reg *Registry) ApplyGuess(rec *record.Record, text string) {
	guess, authoritative := reg.Guess(text)

	if guess != "" && (authoritative || rec.Module == "") {
		rec.Module = guess
	}

	if rec.Module == "" {
		rec.Module = record.ModuleUnknown

		return
	}

	rec.Module = reg.Canonical(rec.Module)
}
