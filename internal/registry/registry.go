// Package registry loads and validates the declarative list of data sources an
// aggregation run consumes. Validation is strict and fatal: a malformed
// registry aborts the run before any network activity.
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	"emaildomains/pkg/domain"
	"emaildomains/pkg/serrors"
)

// rawSource mirrors one registry document entry before validation.
type rawSource struct {
	ID       string `json:"id"`
	Category string `json:"category"`
	URL      string `json:"url,omitempty"`
	Path     string `json:"path,omitempty"`
	// Enabled defaults to true when omitted.
	Enabled *bool `json:"enabled,omitempty"`
}

type document struct {
	Sources []rawSource `json:"sources"`
}

// Registry exposes the ordered sequence of validated source descriptors.
type Registry struct {
	sources []domain.Source
}

// Load reads the registry document at path and validates every descriptor.
// Any violation returns serrors.ErrConfig.
func Load(path string) (*Registry, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrConfig, err, "could not read source registry %q", path)
	}

	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, serrors.Wrap(serrors.ErrConfig, err, "could not parse source registry %q", path)
	}
	if len(doc.Sources) == 0 {
		return nil, serrors.With(serrors.ErrConfig, "source registry %q lists no sources", path)
	}

	sources := make([]domain.Source, 0, len(doc.Sources))
	seen := make(map[string]struct{}, len(doc.Sources))
	for i, raw := range doc.Sources {
		src, err := validate(raw)
		if err != nil {
			return nil, fmt.Errorf("source at index %d: %w", i, err)
		}
		if _, dup := seen[src.ID]; dup {
			return nil, serrors.With(serrors.ErrConfig, "duplicate source id %q", src.ID)
		}
		seen[src.ID] = struct{}{}
		sources = append(sources, src)
	}

	return &Registry{sources: sources}, nil
}

// validate converts a raw entry into a domain.Source, enforcing required
// fields and the category enum.
func validate(raw rawSource) (domain.Source, error) {
	if raw.ID == "" {
		return domain.Source{}, serrors.With(serrors.ErrConfig, "source id must not be empty")
	}

	category, err := domain.ParseCategory(raw.Category)
	if err != nil {
		return domain.Source{}, serrors.Wrap(serrors.ErrConfig, err, "source %q", raw.ID)
	}

	switch {
	case raw.URL == "" && raw.Path == "":
		return domain.Source{}, serrors.With(serrors.ErrConfig, "source %q has no origin", raw.ID)
	case raw.URL != "" && raw.Path != "":
		return domain.Source{}, serrors.With(serrors.ErrConfig, "source %q has both url and path origins", raw.ID)
	}

	enabled := true
	if raw.Enabled != nil {
		enabled = *raw.Enabled
	}

	return domain.Source{
		ID:       raw.ID,
		Category: category,
		URL:      raw.URL,
		Path:     raw.Path,
		Enabled:  enabled,
	}, nil
}

// Sources returns all descriptors in registry order, including disabled ones.
func (r *Registry) Sources() []domain.Source { return r.sources }

// Enabled returns the descriptors participating in a run, in registry order.
func (r *Registry) Enabled() []domain.Source {
	out := make([]domain.Source, 0, len(r.sources))
	for _, src := range r.sources {
		if src.Enabled {
			out = append(out, src)
		}
	}

	return out
}
