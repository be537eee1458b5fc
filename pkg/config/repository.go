package config

// Repository is a local repository whose changes deckhand tracks.
type Repository struct {
	Name string
	Path string   // Working tree, relative to the config file's directory
	Tags []string // User-defined tags for filtering
}

// RepositoryFile is the raw TOML structure for a repository.
type RepositoryFile struct {
	Name string   `toml:"name"`
	Path string   `toml:"path,omitempty"`
	Tags []string `toml:"tags,omitempty"`
}

// GetEffectivePath returns the local path for the repository.
// Defaults to the repository name if not specified.
func (r *Repository) GetEffectivePath() string {
	if r.Path != "" {
		return r.Path
	}
	return r.Name
}

// HasTag returns true if the repository has the specified tag.
func (r *Repository) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}
