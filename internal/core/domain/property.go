package domain

import (
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// PropertyKind distinguishes how a property's default and references are
// interpreted.
type PropertyKind int

const (
	// PropertyString is a plain string value, substituted verbatim.
	PropertyString PropertyKind = iota
	// PropertyPath is normalized to an absolute path, relative to the
	// defining build file's directory, the moment it's defined.
	PropertyPath
)

// Property is a named, substitutable value declared by a build file.
type Property struct {
	Name    string
	Kind    PropertyKind
	Default string
}

var propertyRef = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_.]*)\}`)

// PropertyStore holds every property defined across a parse, resolving
// "${name}" references (possibly nested) on read.
type PropertyStore struct {
	props map[string]Property
}

// NewPropertyStore returns an empty store.
func NewPropertyStore() *PropertyStore {
	return &PropertyStore{props: make(map[string]Property)}
}

// DefineProperty registers name with kind and a default value. definingDir
// is the directory of the build file that declared it, used to normalize
// PropertyPath defaults to an absolute path at definition time.
func (ps *PropertyStore) DefineProperty(name string, kind PropertyKind, def string, definingDir string) error {
	if _, exists := ps.props[name]; exists {
		return zerr.With(ErrDuplicateDefinition, "property", name)
	}
	if kind == PropertyPath && !filepath.IsAbs(def) {
		def = filepath.Join(definingDir, def)
	}
	ps.props[name] = Property{Name: name, Kind: kind, Default: def}
	return nil
}

// Get expands name's value, recursively substituting any "${other}"
// references its default contains. A substitution cycle returns
// ErrPropertyCycle naming the full chain.
func (ps *PropertyStore) Get(name string) (string, error) {
	return ps.expand(name, nil)
}

// ExpandString substitutes every "${name}" reference in s, recursively
// expanding each referenced property's own value. Used by buildctx to
// expand arbitrary command/option strings, not just a property's own
// default.
func (ps *PropertyStore) ExpandString(s string) (string, error) {
	var expandErr error
	result := propertyRef.ReplaceAllStringFunc(s, func(match string) string {
		if expandErr != nil {
			return match
		}
		ref := propertyRef.FindStringSubmatch(match)[1]
		val, err := ps.expand(ref, nil)
		if err != nil {
			expandErr = err
			return match
		}
		return val
	})
	if expandErr != nil {
		return "", expandErr
	}
	return result, nil
}

func (ps *PropertyStore) expand(name string, chain []string) (string, error) {
	for _, seen := range chain {
		if seen == name {
			return "", zerr.With(ErrPropertyCycle, "chain", strings.Join(append(chain, name), " -> "))
		}
	}
	prop, exists := ps.props[name]
	if !exists {
		return "", zerr.With(ErrPropertyUndefined, "property", name)
	}
	chain = append(chain, name)

	var expandErr error
	result := propertyRef.ReplaceAllStringFunc(prop.Default, func(match string) string {
		if expandErr != nil {
			return match
		}
		ref := propertyRef.FindStringSubmatch(match)[1]
		val, err := ps.expand(ref, chain)
		if err != nil {
			expandErr = err
			return match
		}
		return val
	})
	if expandErr != nil {
		return "", expandErr
	}
	return result, nil
}
