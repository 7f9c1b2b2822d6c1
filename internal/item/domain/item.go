package domain

import "errors"

// Item is a priced entry in a store's catalog.
type Item struct {
	ID      int64
	Name    string
	Price   float64
	StoreID int64
}

// Validate validates the item for persistence.
func (i *Item) Validate() error {
	if i.Name == "" {
		return errors.New("name is required")
	}
	if i.StoreID == 0 {
		return errors.New("store_id is required")
	}
	return nil
}
