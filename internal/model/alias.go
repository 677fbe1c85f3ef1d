package model

import (
	"encoding/json"
	"os"
	"sync"
)

// AliasResolver resolves short, user-facing aliases to canonical model IDs,
// loaded once from a JSON file of the form {"alias": "org/real-model-id"}.
// A resolver with no file configured is a harmless passthrough.
type AliasResolver struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewAliasResolver loads the alias table from path. An empty path or a
// missing file yields an empty (passthrough) table rather than an error,
// since the alias file is an optional convenience layer.
func NewAliasResolver(path string) (*AliasResolver, error) {
	r := &AliasResolver{aliases: map[string]string{}}
	if path == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return r, nil
		}
		return nil, err
	}
	var table map[string]string
	if err := json.Unmarshal(data, &table); err != nil {
		return nil, err
	}
	r.aliases = table
	return r, nil
}

// Resolve returns the canonical ID for id, or id unchanged if it is not a
// known alias.
func (r *AliasResolver) Resolve(id ID) ID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if canonical, ok := r.aliases[string(id)]; ok {
		return ID(canonical)
	}
	return id
}

// Reload re-reads the alias file, replacing the in-memory table atomically.
func (r *AliasResolver) Reload(path string) error {
	fresh, err := NewAliasResolver(path)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.aliases = fresh.aliases
	r.mu.Unlock()
	return nil
}
