// Package providers contains the external metadata adapters. Each provider
// gets one HTTP client that maps provider payloads onto the essential-data
// shape; selection happens through a registry keyed by provider string.
package providers

import (
	"context"

	"mediahub/internal/http-api/models"
	"mediahub/internal/shared"
)

// Result is one item returned by a provider, already mapped onto the
// essential-data shape but not yet normalized.
type Result struct {
	Provider   shared.Provider
	ExternalID string
	MediaKind  shared.MediaKind
	Essential  models.EssentialData
}

// Adapter is the contract every metadata provider implements.
type Adapter interface {
	Search(ctx context.Context, query string, kind shared.MediaKind) ([]Result, error)
	GetByID(ctx context.Context, externalID string, kind shared.MediaKind) (*Result, error)
}

// Registry holds the configured adapters. The manual provider has no
// adapter; hand-entered records are never refreshed.
type Registry struct {
	adapters map[shared.Provider]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[shared.Provider]Adapter)}
}

func (r *Registry) Register(provider shared.Provider, adapter Adapter) {
	r.adapters[provider] = adapter
}

func (r *Registry) Get(provider shared.Provider) (Adapter, bool) {
	adapter, ok := r.adapters[provider]
	return adapter, ok
}
