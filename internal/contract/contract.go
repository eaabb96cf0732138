package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// Contract describes a module's accepted input shape and guaranteed output
// shape. Identity is (Name, Version); a published contract is never mutated,
// breaking changes require a new version.
type Contract struct {
	Name         string
	Version      *semver.Version
	InputSchema  *Schema
	OutputSchema *Schema
	Dependencies []string
}

// New builds a contract, checking the version string and both schema trees
func New(name, version string, input, output *Schema, dependencies ...string) (*Contract, error) {
	if name == "" {
		return nil, fmt.Errorf("contract name is required")
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return nil, fmt.Errorf("invalid version %q for module %s: %w", version, name, err)
	}
	if input == nil || output == nil {
		return nil, fmt.Errorf("module %s: both input and output schemas are required", name)
	}
	if err := input.Check(); err != nil {
		return nil, fmt.Errorf("module %s: invalid input schema: %w", name, err)
	}
	if err := output.Check(); err != nil {
		return nil, fmt.Errorf("module %s: invalid output schema: %w", name, err)
	}
	return &Contract{
		Name:         name,
		Version:      v,
		InputSchema:  input,
		OutputSchema: output,
		Dependencies: dependencies,
	}, nil
}

// MustNew is New for statically declared contracts; it panics on error
func MustNew(name, version string, input, output *Schema, dependencies ...string) *Contract {
	c, err := New(name, version, input, output, dependencies...)
	if err != nil {
		panic(err)
	}
	return c
}

// ID returns the name@version identity string
func (c *Contract) ID() string {
	return c.Name + "@" + c.Version.String()
}

// Hash returns a hex digest over both schema trees. The rendering is
// canonical: field order in source code or YAML does not change the hash.
func (c *Contract) Hash() string {
	h := sha256.New()
	fmt.Fprintf(h, "in:")
	writeCanonical(h, c.InputSchema)
	fmt.Fprintf(h, "out:")
	writeCanonical(h, c.OutputSchema)
	return hex.EncodeToString(h.Sum(nil))
}

func writeCanonical(w io.Writer, s *Schema) {
	if s == nil {
		fmt.Fprint(w, "<nil>")
		return
	}
	fmt.Fprintf(w, "%s(", s.Kind)
	switch s.Kind {
	case KindEnum:
		values := append([]string(nil), s.Values...)
		sort.Strings(values)
		fmt.Fprint(w, strings.Join(values, ","))
	case KindObject:
		names := make([]string, 0, len(s.Fields))
		for name := range s.Fields {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			req := ""
			if s.isRequired(name) {
				req = "!"
			}
			fmt.Fprintf(w, "%s%s=", name, req)
			writeCanonical(w, s.Fields[name])
			fmt.Fprint(w, ";")
		}
	case KindArray:
		fmt.Fprintf(w, "min=%d;", s.MinItems)
		writeCanonical(w, s.Elem)
	case KindNumber:
		if s.Min != nil {
			fmt.Fprintf(w, "min=%v;", *s.Min)
		}
		if s.Max != nil {
			fmt.Fprintf(w, "max=%v;", *s.Max)
		}
	}
	fmt.Fprint(w, ")")
}
