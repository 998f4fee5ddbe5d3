// Package contacts persists the contact book in a single relational table.
package contacts

import "context"

// Contact is a single address book entry. Name is the identity key and Phone
// is unique across all contacts.
type Contact struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateInput carries the mutable fields of a contact. Empty values are left unchanged.
type UpdateInput struct {
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

// Empty reports whether no field was supplied.
func (in UpdateInput) Empty() bool {
	return in.Phone == "" && in.Address == ""
}

// Repository describes the persistence contract for contacts.
type Repository interface {
	// Bootstrap creates the schema when absent. It is safe to call repeatedly.
	Bootstrap(ctx context.Context) error
	// List returns every contact whose name, phone or address contains filter.
	// An empty filter returns all contacts.
	List(ctx context.Context, filter string) ([]Contact, error)
	// All returns every contact in stored order.
	All(ctx context.Context) ([]Contact, error)
	Insert(ctx context.Context, c Contact) error
	Update(ctx context.Context, name string, in UpdateInput) error
	Delete(ctx context.Context, name string) error
	Count(ctx context.Context) (int, error)
}
