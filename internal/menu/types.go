package menu

import (
	"context"

	"contactbook/internal/data/contacts"
)

// MenuOption represents a selectable option shown to the user.
type MenuOption struct {
	Label       string
	Description string
	Handler     func(ctx context.Context) error
	Color       string
	Enabled     bool
}

// ContactService is the subset of the API client the menu drives.
type ContactService interface {
	List(ctx context.Context, query string) ([]contacts.Contact, error)
	Add(ctx context.Context, c contacts.Contact) (string, error)
	Update(ctx context.Context, name string, in contacts.UpdateInput) (string, error)
	Delete(ctx context.Context, name string) (string, error)
	Export(ctx context.Context) ([]byte, error)
	Import(ctx context.Context, csvData []byte) (string, error)
	SendMessage(ctx context.Context, text string) (string, error)
	Shutdown(ctx context.Context) (string, error)
}

// Prompter collects input from the user.
type Prompter interface {
	// Select returns the index of the chosen item.
	Select(label string, items []string) (int, error)
	// Input reads one line. validate may be nil.
	Input(label, defaultValue string, validate func(string) error) (string, error)
	Confirm(label string) (bool, error)
}
