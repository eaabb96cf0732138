// Package registry holds the contracts and adapters of all known modules and
// resolves module references to concrete versions.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Masterminds/semver/v3"
	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/modules"
)

// DuplicateContractError is returned when a (name, version) pair is
// re-registered with a different schema hash
type DuplicateContractError struct {
	Name    string
	Version string
}

func (e *DuplicateContractError) Error() string {
	return fmt.Sprintf("contract %s@%s is already registered with a different schema", e.Name, e.Version)
}

// UnknownModuleError is returned when no registered version satisfies a
// module reference
type UnknownModuleError struct {
	Name  string
	Range string
}

func (e *UnknownModuleError) Error() string {
	if e.Range == "" {
		return fmt.Sprintf("no module registered under name %q", e.Name)
	}
	return fmt.Sprintf("no version of module %q satisfies range %q", e.Name, e.Range)
}

type entry struct {
	contract *contract.Contract
	adapter  modules.Adapter
	hash     string
}

// Registry maps module names to their registered versions. Registration is
// expected at startup; resolution is safe for concurrent use across runs.
type Registry struct {
	mu      sync.RWMutex
	entries map[string][]entry
}

// New creates an empty registry
func New() *Registry {
	return &Registry{entries: make(map[string][]entry)}
}

// Register adds a contract and its adapter. Re-registering an identical
// contract is a no-op; the same (name, version) with a different schema hash
// fails with DuplicateContractError.
func (r *Registry) Register(c *contract.Contract, a modules.Adapter) error {
	if c == nil {
		return fmt.Errorf("cannot register a nil contract")
	}
	if a == nil {
		return fmt.Errorf("cannot register module %s with a nil adapter", c.Name)
	}

	hash := c.Hash()

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries[c.Name] {
		if existing.contract.Version.Equal(c.Version) {
			if existing.hash == hash {
				return nil
			}
			return &DuplicateContractError{Name: c.Name, Version: c.Version.String()}
		}
	}

	r.entries[c.Name] = append(r.entries[c.Name], entry{contract: c, adapter: a, hash: hash})
	return nil
}

// Resolve returns the contract and adapter for the highest registered version
// of name that satisfies versionRange. An empty range matches any version.
func (r *Registry) Resolve(name, versionRange string) (*contract.Contract, modules.Adapter, error) {
	var constraint *semver.Constraints
	if versionRange != "" {
		var err error
		constraint, err = semver.NewConstraint(versionRange)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid version range %q for module %s: %w", versionRange, name, err)
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	candidates := r.entries[name]
	if len(candidates) == 0 {
		return nil, nil, &UnknownModuleError{Name: name}
	}

	var best *entry
	for i := range candidates {
		e := &candidates[i]
		if constraint != nil && !constraint.Check(e.contract.Version) {
			continue
		}
		if best == nil || e.contract.Version.GreaterThan(best.contract.Version) {
			best = e
		}
	}
	if best == nil {
		return nil, nil, &UnknownModuleError{Name: name, Range: versionRange}
	}
	return best.contract, best.adapter, nil
}

// All returns a snapshot of every registered contract, sorted by name then
// version. Diagnostics only; ordering carries no execution semantics.
func (r *Registry) All() []*contract.Contract {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*contract.Contract
	for _, versions := range r.entries {
		for _, e := range versions {
			out = append(out, e.contract)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Version.LessThan(out[j].Version)
	})
	return out
}
