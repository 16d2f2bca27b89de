// internal/core/domain/inventory.go
package domain

import (
	"strings"
)

// InventoryItem is a single inventory record
type InventoryItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"inventory_name"`
	Description string  `json:"description"`
	Photo       *string `json:"photo"`
}

// ItemPatch carries the fields of a partial update. A nil field was not supplied.
type ItemPatch struct {
	Name        *string `json:"inventory_name"`
	Description *string `json:"description"`
}

// ImportRow is one row of a bulk import, before validation
type ImportRow struct {
	Name        string
	Description string
}

// NewInventoryItem builds an item ready for storage, without an id
func NewInventoryItem(name, description string, photo *string) (*InventoryItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Field: "inventory_name", Reason: "is required"}
	}

	item := &InventoryItem{
		Name:        name,
		Description: description,
	}
	if photo != nil && *photo != "" {
		p := *photo
		item.Photo = &p
	}

	return item, nil
}

// HasPhoto reports whether a photo reference is attached
func (i *InventoryItem) HasPhoto() bool {
	return i.Photo != nil && *i.Photo != ""
}

// Clone returns a deep copy of the item
func (i *InventoryItem) Clone() *InventoryItem {
	c := *i
	if i.Photo != nil {
		p := *i.Photo
		c.Photo = &p
	}
	return &c
}

// Validate checks the patch supplies at least one field and that a supplied
// name is not blank.
func (p ItemPatch) Validate() error {
	if p.Name == nil && p.Description == nil {
		return &ValidationError{Reason: "at least one of inventory_name or description is required"}
	}
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return &ValidationError{Field: "inventory_name", Reason: "cannot be empty"}
	}
	return nil
}

// Apply copies the supplied fields onto item
func (p ItemPatch) Apply(item *InventoryItem) {
	if p.Name != nil {
		item.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
}

// PhotoPath is the public URL path an item's photo is served from
func PhotoPath(id string) string {
	return "/inventory/" + id + "/photo"
}
