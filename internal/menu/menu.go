// Package menu implements the interactive contact book client.
package menu

import (
	"context"
	"errors"

	"github.com/manifoldco/promptui"

	"contactbook/internal/exportfile"
	"contactbook/internal/logger"
	"contactbook/internal/ui"
)

// errQuit ends the menu loop without reporting a failure.
var errQuit = errors.New("quit")

// Menu coordinates the interactive workflow of the terminal client.
type Menu struct {
	service   ContactService
	printer   *ui.Printer
	logger    logger.Logger
	prompter  Prompter
	files     *exportfile.Store
	serverURL string
}

// NewMenu creates a menu bound to service. A nil prompter selects promptui.
func NewMenu(service ContactService, printer *ui.Printer, log logger.Logger, prompter Prompter, serverURL string) *Menu {
	if printer == nil {
		printer = ui.NewPrinter(nil)
	}
	if log == nil {
		log = logger.NewStandardLogger()
	}
	if prompter == nil {
		prompter = PromptUI{}
	}

	return &Menu{
		service:   service,
		printer:   printer,
		logger:    log,
		prompter:  prompter,
		files:     exportfile.NewStore(nil),
		serverURL: serverURL,
	}
}

// ShowMainMenu displays the interactive menu until the user quits, the
// server is shut down or ctx is cancelled.
func (m *Menu) ShowMainMenu(ctx context.Context) error {
	m.printer.PrintBanner(m.serverURL)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		options := m.buildMenuOptions()
		selected, err := m.promptUserSelection(options)
		if err != nil {
			if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) {
				m.logger.Debug("user cancelled menu")
				return nil
			}
			return err
		}

		err = options[selected].Handler(ctx)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case errors.Is(err, promptui.ErrInterrupt):
			m.printer.Warn("operation cancelled")
		case err != nil:
			m.reportError(err)
		}
	}
}

func (m *Menu) buildMenuOptions() []MenuOption {
	return []MenuOption{
		{Label: "1. List contacts", Handler: m.handleList, Color: "green", Enabled: true},
		{Label: "2. Search contacts", Handler: m.handleSearch, Color: "green", Enabled: true},
		{Label: "3. Add contact", Handler: m.handleAdd, Color: "cyan", Enabled: true},
		{Label: "4. Update contact", Handler: m.handleUpdate, Color: "cyan", Enabled: true},
		{Label: "5. Delete contact", Handler: m.handleDelete, Color: "yellow", Enabled: true},
		{Label: "6. Export to CSV", Description: "save all contacts to a file", Handler: m.handleExport, Color: "cyan", Enabled: true},
		{Label: "7. Import from CSV", Description: "load contacts from a file", Handler: m.handleImport, Color: "cyan", Enabled: true},
		{Label: "8. Send message", Description: "report something to the operator", Handler: m.handleMessage, Enabled: true},
		{Label: "9. Shut down server", Handler: m.handleShutdown, Color: "red", Enabled: true},
		{Label: "0. Quit", Handler: m.handleQuit, Enabled: true},
	}
}
