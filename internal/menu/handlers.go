package menu

import (
	"context"

	"github.com/pkg/errors"

	"contactbook/internal/client"
	"contactbook/internal/data/contacts"
)

func (m *Menu) handleList(ctx context.Context) error {
	list, err := m.service.List(ctx, "")
	if err != nil {
		return err
	}
	m.printer.PrintContacts(list)
	return nil
}

func (m *Menu) handleSearch(ctx context.Context) error {
	query, err := m.prompter.Input("Search text", "", validateRequired)
	if err != nil {
		return err
	}
	list, err := m.service.List(ctx, query)
	if err != nil {
		return err
	}
	m.printer.PrintContacts(list)
	return nil
}

func (m *Menu) handleAdd(ctx context.Context) error {
	var c contacts.Contact
	fields := []struct {
		label string
		dst   *string
	}{
		{"Name", &c.Name},
		{"Phone", &c.Phone},
		{"Address", &c.Address},
	}
	for _, f := range fields {
		value, err := m.prompter.Input(f.label, "", validateRequired)
		if err != nil {
			return err
		}
		*f.dst = value
	}

	msg, err := m.service.Add(ctx, c)
	if err != nil {
		return err
	}
	m.printer.Success("%s", msg)
	return nil
}

func (m *Menu) handleUpdate(ctx context.Context) error {
	name, err := m.prompter.Input("Name of the contact to update", "", validateRequired)
	if err != nil {
		return err
	}
	phone, err := m.prompter.Input("New phone (leave empty to keep)", "", nil)
	if err != nil {
		return err
	}
	address, err := m.prompter.Input("New address (leave empty to keep)", "", nil)
	if err != nil {
		return err
	}

	in := contacts.UpdateInput{Phone: phone, Address: address}
	if in.Empty() {
		m.printer.Warn("nothing to update")
		return nil
	}

	msg, err := m.service.Update(ctx, name, in)
	if err != nil {
		return err
	}
	m.printer.Success("%s", msg)
	return nil
}

func (m *Menu) handleDelete(ctx context.Context) error {
	name, err := m.prompter.Input("Name of the contact to delete", "", validateRequired)
	if err != nil {
		return err
	}
	ok, err := m.prompter.Confirm("Delete " + name)
	if err != nil || !ok {
		return err
	}

	msg, err := m.service.Delete(ctx, name)
	if err != nil {
		return err
	}
	m.printer.Success("%s", msg)
	return nil
}

func (m *Menu) handleExport(ctx context.Context) error {
	path, err := m.prompter.Input("Save export to", "contacts.csv", validateCSVPath)
	if err != nil {
		return err
	}

	data, err := m.service.Export(ctx)
	if err != nil {
		return err
	}
	res, err := m.files.Save(path, data)
	if err != nil {
		return errors.Wrapf(err, "failed to save export to %s", path)
	}
	if res.Unchanged {
		m.printer.Info("%s is already up to date", path)
		return nil
	}
	m.printer.Success("contacts exported to %s (sha256 %.12s)", path, res.Checksum)
	return nil
}

func (m *Menu) handleImport(ctx context.Context) error {
	path, err := m.prompter.Input("CSV file to import", "contacts.csv", validateCSVPath)
	if err != nil {
		return err
	}

	data, err := m.files.Load(path)
	if err != nil {
		return err
	}

	msg, err := m.service.Import(ctx, data)
	if err != nil {
		return err
	}
	m.printer.Success("%s", msg)
	return nil
}

func (m *Menu) handleMessage(ctx context.Context) error {
	text, err := m.prompter.Input("Message", "", validateRequired)
	if err != nil {
		return err
	}
	msg, err := m.service.SendMessage(ctx, text)
	if err != nil {
		return err
	}
	m.printer.Success("%s", msg)
	return nil
}

func (m *Menu) handleShutdown(ctx context.Context) error {
	ok, err := m.prompter.Confirm("Shut down the server")
	if err != nil || !ok {
		return err
	}

	msg, err := m.service.Shutdown(ctx)
	if err != nil {
		return err
	}
	m.printer.Success("%s", msg)
	return errQuit
}

func (m *Menu) handleQuit(context.Context) error {
	return errQuit
}

func (m *Menu) reportError(err error) {
	if client.IsConnectionError(err) {
		m.logger.Debug("connection failure: %v", err)
	}
	m.printer.PrintFailure(err, m.serverURL)
}
