package domain

import (
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// OptionStore holds global option values plus per-target overrides,
// frozen exactly once after parse ends. EffectiveOptionsFor reads from the
// frozen snapshot only; reads before Freeze return ErrOptionsPremature so a
// parse-time bug (a target reading its own options while being registered)
// fails loudly instead of silently seeing a partial config.
type OptionStore struct {
	globals  map[string]any
	perTgt   map[InternedString]map[string]any
	frozen   bool
	snapshot map[InternedString]map[string]any
}

// NewOptionStore returns an empty, unfrozen store.
func NewOptionStore() *OptionStore {
	return &OptionStore{
		globals: make(map[string]any),
		perTgt:  make(map[InternedString]map[string]any),
	}
}

// DefineOption declares name's value, either globally (target == zero
// value) or scoped to one target. Redefinition at the same scope is an
// error.
func (os *OptionStore) DefineOption(target InternedString, name string, value any) error {
	if os.frozen {
		return zerr.With(ErrOptionsFrozen, "option", name)
	}
	var bucket map[string]any
	if target == (InternedString{}) {
		bucket = os.globals
	} else {
		b, ok := os.perTgt[target]
		if !ok {
			b = make(map[string]any)
			os.perTgt[target] = b
		}
		bucket = b
	}
	if _, exists := bucket[name]; exists {
		return zerr.With(ErrDuplicateDefinition, "option", name)
	}
	bucket[name] = value
	return nil
}

// SetGlobalOption sets name's global value, overwriting any earlier
// definition. DefineOption declares an option (strict about duplicates);
// SetGlobalOption layers a late override on top, the way CLI-supplied
// values override a build file's declared defaults.
func (os *OptionStore) SetGlobalOption(name string, value any) error {
	if os.frozen {
		return zerr.With(ErrOptionsFrozen, "option", name)
	}
	os.globals[name] = value
	return nil
}

// Freeze computes the effective (global merged with per-target overrides)
// option map for every target in targets, and locks the
// store against further writes. Calling Freeze twice is a no-op.
func (os *OptionStore) Freeze(targets []InternedString) {
	if os.frozen {
		return
	}
	os.snapshot = make(map[InternedString]map[string]any, len(targets))
	for _, t := range targets {
		merged := make(map[string]any, len(os.globals))
		for k, v := range os.globals {
			merged[k] = v
		}
		for k, v := range os.perTgt[t] {
			merged[k] = v
		}
		os.snapshot[t] = merged
	}
	os.frozen = true
}

// EffectiveOptionsFor returns the frozen, merged option map for target.
// Calling before Freeze returns ErrOptionsPremature.
func (os *OptionStore) EffectiveOptionsFor(target InternedString) (map[string]any, error) {
	if !os.frozen {
		return nil, zerr.With(ErrOptionsPremature, "target", target.String())
	}
	return os.snapshot[target], nil
}

// HashFor returns a deterministic digest of target's effective options, a
// cache-key contributor alongside the input set hash: changing an option
// value invalidates the cache even when no file changed.
func (os *OptionStore) HashFor(target InternedString) (string, error) {
	opts, err := os.EffectiveOptionsFor(target)
	if err != nil {
		return "", err
	}

	keys := make([]string, 0, len(opts))
	for k := range opts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	hasher := xxhash.New()
	for _, k := range keys {
		fmt.Fprintf(hasher, "%s=%v;", k, opts[k])
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
