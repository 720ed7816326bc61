package release

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrInvalidRepository is returned when an identifier is not in owner/name form.
	ErrInvalidRepository = errors.New("repository must be in owner/name form")
	// ErrUnsafePathElement is returned when a name cannot be used as a single path element.
	ErrUnsafePathElement = errors.New("unsafe path element")
)

// Repository identifies a GitHub repository and its local mirror directory.
type Repository struct {
	// Owner is the user or organization owning the repository.
	Owner string
	// Name is the repository name.
	Name string
	// Directory is the subdirectory of the artifacts root; empty means Name.
	Directory string
}

// ParseRepository parses the owner/name form.
func ParseRepository(s string) (Repository, error) {
	owner, name, found := strings.Cut(strings.TrimSpace(s), "/")
	if !found {
		return Repository{}, fmt.Errorf("%q: %w", s, ErrInvalidRepository)
	}

	repo := Repository{
		Owner: strings.TrimSpace(owner),
		Name:  strings.TrimSpace(name),
	}

	if err := repo.Validate(); err != nil {
		return Repository{}, err
	}

	return repo, nil
}

// String renders the repository as owner/name.
func (r Repository) String() string {
	return r.Owner + "/" + r.Name
}

// Dir returns the local directory name of the repository.
func (r Repository) Dir() string {
	if r.Directory != "" {
		return r.Directory
	}

	return r.Name
}

// Validate checks that owner, name and directory are usable.
func (r Repository) Validate() error {
	if r.Owner == "" || r.Name == "" || strings.Contains(r.Owner, "/") || strings.Contains(r.Name, "/") {
		return fmt.Errorf("%q: %w", r.String(), ErrInvalidRepository)
	}

	if err := ValidatePathElement(r.Dir()); err != nil {
		return fmt.Errorf("directory of %s: %w", r, err)
	}

	return nil
}

// ValidatePathElement reports whether name can be joined to a directory
// without escaping it.
func ValidatePathElement(name string) error {
	switch {
	case name == "", name == ".", name == "..":
		return fmt.Errorf("%q: %w", name, ErrUnsafePathElement)
	case strings.ContainsAny(name, `/\`), filepath.Base(name) != name:
		return fmt.Errorf("%q: %w", name, ErrUnsafePathElement)
	case strings.ContainsRune(name, 0):
		return fmt.Errorf("%q: %w", name, ErrUnsafePathElement)
	}

	return nil
}
