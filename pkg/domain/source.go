package domain

// Source describes one contribution stream of raw domains. Sources are
// immutable, defined at configuration time, and identified by ID in all
// statistics.
type Source struct {
	// ID uniquely identifies the source within the registry.
	ID string
	// Category is the classification every domain from this source claims.
	Category Category
	// URL is the remote origin; set for sources fetched over HTTP.
	URL string
	// Path is the local origin, relative to the configured sources directory.
	// Exactly one of URL and Path is set.
	Path string
	// Enabled excludes the source from a run when false without removing it
	// from the registry.
	Enabled bool
}

// Remote reports whether the source is fetched over the network.
func (s Source) Remote() bool { return s.URL != "" }
