package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"contactbook/internal/client"
	"contactbook/internal/config"
	"contactbook/internal/data/contacts"
	"contactbook/internal/exportfile"
	"contactbook/internal/logger"
	"contactbook/internal/menu"
	"contactbook/internal/ui"
)

var version = "dev"

// Globals are shared by every subcommand.
type Globals struct {
	Config    string        `help:"Path to the YAML configuration file." short:"c" default:"contactbook.yaml"`
	ServerURL string        `name:"server" help:"Base URL of the contact book server."`
	Timeout   time.Duration `help:"Request timeout."`
}

// session is the resolved runtime state handed to every command.
type session struct {
	cfg     *config.Config
	printer *ui.Printer
	stdout  io.Writer
}

// reportedError marks failures already shown to the user.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// CLI is the top-level command structure of the terminal client.
type CLI struct {
	Globals

	Version  kong.VersionFlag `help:"Show version." short:"V"`
	Menu     MenuCmd          `cmd:"" default:"1" help:"Open the interactive menu."`
	List     ListCmd          `cmd:"" help:"List all contacts."`
	Search   SearchCmd        `cmd:"" help:"Search contacts by name, phone or address."`
	Add      AddCmd           `cmd:"" help:"Add a contact."`
	Update   UpdateCmd        `cmd:"" help:"Update the phone and/or address of a contact."`
	Delete   DeleteCmd        `cmd:"" help:"Delete a contact."`
	Export   ExportCmd        `cmd:"" help:"Export all contacts to a CSV file."`
	Import   ImportCmd        `cmd:"" help:"Import contacts from a CSV file."`
	Message  MessageCmd       `cmd:"" help:"Send a message to the server operator."`
	Status   StatusCmd        `cmd:"" help:"Check that the server is up."`
	Shutdown ShutdownCmd      `cmd:"" help:"Ask the server to shut down."`
}

// newSession loads configuration and applies the global flags on top of it.
func (g *Globals) newSession(stdout io.Writer) (*session, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, err
	}
	if g.ServerURL != "" {
		cfg.Client.ServerURL = g.ServerURL
	}
	if g.Timeout > 0 {
		cfg.Client.Timeout = g.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &session{cfg: cfg, printer: ui.NewPrinter(stdout), stdout: stdout}, nil
}

func (s *session) client() *client.Client {
	return client.New(s.cfg.Client.ServerURL, client.WithTimeout(s.cfg.Client.Timeout))
}

// report prints err for the user and returns it so the process exits non-zero.
func (s *session) report(err error) error {
	if err == nil {
		return nil
	}
	s.printer.PrintFailure(err, s.cfg.Client.ServerURL)
	return reportedError{err}
}

// MenuCmd opens the interactive menu.
type MenuCmd struct{}

func (c *MenuCmd) Run(ctx context.Context, s *session) error {
	log := logger.New(s.cfg.Log.Format, s.cfg.LogLevel(), os.Stderr,
		logger.WithFields(logger.String("service", "contactbook-client")))
	return menu.NewMenu(s.client(), s.printer, log, nil, s.cfg.Client.ServerURL).ShowMainMenu(ctx)
}

// ListCmd prints every contact.
type ListCmd struct{}

func (c *ListCmd) Run(ctx context.Context, s *session) error {
	list, err := s.client().List(ctx, "")
	if err != nil {
		return s.report(err)
	}
	s.printer.PrintContacts(list)
	return nil
}

// SearchCmd prints contacts containing the query.
type SearchCmd struct {
	Query string `arg:"" help:"Text to look for."`
}

func (c *SearchCmd) Run(ctx context.Context, s *session) error {
	list, err := s.client().List(ctx, c.Query)
	if err != nil {
		return s.report(err)
	}
	s.printer.PrintContacts(list)
	return nil
}

// AddCmd creates a contact.
type AddCmd struct {
	Name    string `arg:"" help:"Contact name."`
	Phone   string `arg:"" help:"Phone number."`
	Address string `arg:"" help:"Postal address."`
}

func (c *AddCmd) Run(ctx context.Context, s *session) error {
	msg, err := s.client().Add(ctx, contacts.Contact{Name: c.Name, Phone: c.Phone, Address: c.Address})
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("%s", msg)
	return nil
}

// UpdateCmd changes the phone and/or address of a contact.
type UpdateCmd struct {
	Name    string `arg:"" help:"Contact name."`
	Phone   string `help:"New phone number."`
	Address string `help:"New address."`
}

func (c *UpdateCmd) Run(ctx context.Context, s *session) error {
	msg, err := s.client().Update(ctx, c.Name, contacts.UpdateInput{Phone: c.Phone, Address: c.Address})
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("%s", msg)
	return nil
}

// DeleteCmd removes a contact.
type DeleteCmd struct {
	Name string `arg:"" help:"Contact name."`
}

func (c *DeleteCmd) Run(ctx context.Context, s *session) error {
	msg, err := s.client().Delete(ctx, c.Name)
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("%s", msg)
	return nil
}

// ExportCmd writes the CSV export to a file, or to stdout for "-".
type ExportCmd struct {
	Output string `help:"Destination file, - for stdout." short:"o" default:"contacts.csv"`
}

func (c *ExportCmd) Run(ctx context.Context, s *session) error {
	data, err := s.client().Export(ctx)
	if err != nil {
		return s.report(err)
	}
	if c.Output == "-" {
		_, err := s.stdout.Write(data)
		return err
	}
	res, err := exportfile.NewStore(nil).Save(c.Output, data)
	if err != nil {
		return s.report(errors.Wrapf(err, "failed to save export to %s", c.Output))
	}
	if res.Unchanged {
		s.printer.Info("%s is already up to date", c.Output)
		return nil
	}
	s.printer.Success("contacts exported to %s (sha256 %.12s)", c.Output, res.Checksum)
	return nil
}

// ImportCmd uploads a CSV file.
type ImportCmd struct {
	File string `arg:"" help:"CSV file with a name,phone,address header." type:"existingfile"`
}

func (c *ImportCmd) Run(ctx context.Context, s *session) error {
	data, err := exportfile.NewStore(nil).Load(c.File)
	if err != nil {
		return s.report(err)
	}
	msg, err := s.client().Import(ctx, data)
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("%s", msg)
	return nil
}

// MessageCmd sends free text to the operator log.
type MessageCmd struct {
	Text []string `arg:"" help:"Message text."`
}

func (c *MessageCmd) Run(ctx context.Context, s *session) error {
	msg, err := s.client().SendMessage(ctx, strings.Join(c.Text, " "))
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("%s", msg)
	return nil
}

// StatusCmd reports whether the server answers.
type StatusCmd struct{}

func (c *StatusCmd) Run(ctx context.Context, s *session) error {
	n, err := s.client().Health(ctx)
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("server at %s is up with %d contact(s)", s.cfg.Client.ServerURL, n)
	return nil
}

// ShutdownCmd asks the server to stop.
type ShutdownCmd struct{}

func (c *ShutdownCmd) Run(ctx context.Context, s *session) error {
	msg, err := s.client().Shutdown(ctx)
	if err != nil {
		return s.report(err)
	}
	s.printer.Success("%s", msg)
	return nil
}

func run(args []string, stdout io.Writer, exit func(int)) error {
	var cli CLI
	k, err := kong.New(&cli,
		kong.Name("contactbook"),
		kong.Description("Manage contacts on a contact book server."),
		kong.Vars{"version": version},
		kong.Writers(stdout, os.Stderr),
		kong.Exit(exit),
	)
	if err != nil {
		return err
	}
	kctx, err := k.Parse(args)
	if err != nil {
		return err
	}
	sess, err := cli.Globals.newSession(stdout)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	kctx.BindTo(ctx, (*context.Context)(nil))
	return kctx.Run(sess)
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Exit); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintf(os.Stderr, "error: %s\n", err)
		}
		os.Exit(1)
	}
}
