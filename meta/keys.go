package meta

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/sahilm/fuzzy"
)

// keyToken matches a ${name} variable reference. Only word characters are
// accepted, which keeps expression spans like ${item * 2} and multi-value
// references like ${item:dim} out of the key resolver's reach.
var keyToken = regexp.MustCompile(`\$\{(\w+)\}`)

// keyTable resolves ${name} references among the flat key table.
// Resolution is eager and memoized: each key is resolved at most once, and
// reference chains are walked depth-first with an in-progress set so that
// cycles fail fast instead of recursing without bound.
type keyTable struct {
	names    []string
	raw      map[string]any
	resolved map[string]string
}

func newKeyTable(keys []KeyValue) *keyTable {
	t := &keyTable{
		names:    make([]string, 0, len(keys)),
		raw:      make(map[string]any, len(keys)),
		resolved: make(map[string]string, len(keys)),
	}

	for _, kv := range keys {
		if _, exists := t.raw[kv.Name]; !exists {
			t.names = append(t.names, kv.Name)
		}

		t.raw[kv.Name] = kv.Value
	}

	return t
}

// Resolve substitutes every ${name} token in s with the fully resolved
// value of that key, repeating until no tokens remain.
func (t *keyTable) Resolve(s string) (string, error) {
	return t.resolveString(s, nil)
}

// resolveKey returns the resolved value for name, resolving its raw value
// on first use. visiting carries the chain of keys currently being
// resolved.
func (t *keyTable) resolveKey(name string, visiting []string) (string, error) {
	if val, ok := t.resolved[name]; ok {
		return val, nil
	}

	raw, ok := t.raw[name]
	if !ok {
		return "", t.undefined(name)
	}

	for _, active := range visiting {
		if active == name {
			return "", ErrKeyCycle.
				With(slog.String("key", name),
					slog.String("chain", strings.Join(append(visiting, name), " -> ")))
		}
	}

	var (
		val string
		err error
	)

	if s, ok := raw.(string); ok {
		val, err = t.resolveString(s, append(visiting, name))
		if err != nil {
			return "", err
		}
	} else {
		val = Normalize(raw)
	}

	t.resolved[name] = val

	return val, nil
}

func (t *keyTable) resolveString(s string, visiting []string) (string, error) {
	for {
		match := keyToken.FindStringSubmatchIndex(s)
		if match == nil {
			return s, nil
		}

		name := s[match[2]:match[3]]

		val, err := t.resolveKey(name, visiting)
		if err != nil {
			return "", err
		}

		s = strings.ReplaceAll(s, "${"+name+"}", val)
	}
}

// undefined builds an ErrUndefinedKey, attaching the closest known key
// name as a suggestion when one exists.
func (t *keyTable) undefined(name string) error {
	err := ErrUndefinedKey.With(slog.String("key", name))

	if matches := fuzzy.Find(name, t.names); len(matches) > 0 {
		err = err.With(slog.String("suggestion", matches[0].Str))
	}

	return err
}
