// FILE: lixenwraith/yacman/alias.go
package yacman

import (
	"fmt"
	"sort"
)

// AliasedHandle layers alias resolution over a Handle. Lookups try the
// literal key first and consult the alias mapping only on a miss, so the
// locking core never sees aliases.
//
// The mapping goes from key to alias: with {"a1b2c3": "hg38"}, Get("hg38")
// returns the value stored under "a1b2c3".
type AliasedHandle struct {
	*Handle
	exact bool
}

// NewAliased constructs a Handle with an alias mapping taken from
// opts.Aliases, or from opts.AliasFunc when Aliases is nil. A failing
// AliasFunc only logs a warning and leaves the mapping unset.
func NewAliased(opts Options) (*AliasedHandle, error) {
	h, err := New(opts)
	if err != nil {
		return nil, err
	}

	a := &AliasedHandle{Handle: h, exact: opts.ExactKeys}
	if a.exact {
		return a, nil
	}

	switch {
	case opts.Aliases != nil:
		a.setAliasMap(opts.Aliases)
	case opts.AliasFunc != nil:
		aliases, err := opts.AliasFunc()
		switch {
		case err != nil:
			h.logger.Warn("alias provider failed", "error", err)
		case aliases == nil:
			h.logger.Warn("alias provider returned no mapping")
		default:
			a.setAliasMap(aliases)
		}
	}
	return a, nil
}

func (a *AliasedHandle) setAliasMap(aliases map[string]string) {
	cp := make(map[string]string, len(aliases))
	for k, v := range aliases {
		cp[k] = v
	}

	a.mu.Lock()
	a.meta.aliases = cp
	a.mu.Unlock()
}

// Get retrieves key, falling back to the key whose alias equals the request.
func (a *AliasedHandle) Get(key string) (any, bool) {
	if v, ok := a.Handle.Get(key); ok {
		return v, true
	}
	if a.exact {
		return nil, false
	}

	target, err := a.GetAlias(key)
	if err != nil {
		return nil, false
	}
	return a.Handle.Get(target)
}

// Has reports whether key resolves literally or through an alias.
func (a *AliasedHandle) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// AliasMap returns a copy of the key to alias mapping, or nil when unset.
func (a *AliasedHandle) AliasMap() map[string]string {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.meta.aliases == nil {
		return nil
	}
	cp := make(map[string]string, len(a.meta.aliases))
	for k, v := range a.meta.aliases {
		cp[k] = v
	}
	return cp
}

// GetAlias returns the key that alias refers to.
func (a *AliasedHandle) GetAlias(alias string) (string, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.meta.aliases == nil {
		return "", ErrAliasesNotSet
	}

	// Sorted for a deterministic answer when two keys share an alias.
	keys := make([]string, 0, len(a.meta.aliases))
	for k := range a.meta.aliases {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if a.meta.aliases[k] == alias {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w for: %s", ErrAliasUndefined, alias)
}

// SetAlias assigns alias to key. An existing alias for key is replaced only
// when force is set; the return value reports whether the alias was set.
func (a *AliasedHandle) SetAlias(key, alias string, force bool) (bool, error) {
	if a.exact {
		return false, ErrAliasesNotSet
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.meta.aliases == nil {
		a.meta.aliases = make(map[string]string)
	}
	if existing, ok := a.meta.aliases[key]; ok {
		a.logger.Warn("key already aliased", "key", key, "alias", existing)
		if !force {
			return false, nil
		}
	}

	a.meta.aliases[key] = alias
	a.logger.Info("added alias", "key", key, "alias", alias)
	return true, nil
}

// RemoveAlias drops the alias for key and reports whether one existed.
func (a *AliasedHandle) RemoveAlias(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.meta.aliases[key]; !ok {
		return false
	}
	delete(a.meta.aliases, key)
	return true
}
