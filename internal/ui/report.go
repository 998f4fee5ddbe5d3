package ui

import (
	"errors"
	"strings"

	"contactbook/internal/client"
)

// PrintFailure shows err the way the user needs to see it. Server verdicts
// are printed verbatim; transport failures point at serverURL instead.
func (p *Printer) PrintFailure(err error, serverURL string) {
	if err == nil {
		return
	}
	if client.IsConnectionError(err) {
		p.Error("cannot reach the server at %s", serverURL)
		return
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		// partial imports carry the row list separately
		summary, _, _ := strings.Cut(apiErr.Message, "\n")
		p.Error("%s", strings.TrimSuffix(summary, ":"))
		p.PrintRowErrors(apiErr.RowErrors)
		return
	}

	p.Error("%v", err)
}
