package domain

import "errors"

// Tag labels items within a single store. A tag belongs to exactly one
// store and may only be linked to items of that store.
type Tag struct {
	ID      int64
	Name    string
	StoreID int64
}

func (t *Tag) Validate() error {
	if t.Name == "" {
		return errors.New("tag name is required")
	}
	if t.StoreID <= 0 {
		return errors.New("tag store id is required")
	}
	return nil
}
