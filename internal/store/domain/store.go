package domain

import "errors"

// Store is a named catalog a set of items and tags belongs to.
type Store struct {
	ID   int64
	Name string
}

// Validate validates the store for persistence.
func (s *Store) Validate() error {
	if s.Name == "" {
		return errors.New("name is required")
	}
	return nil
}
