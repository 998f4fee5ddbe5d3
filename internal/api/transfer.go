package api

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/pkg/errors"

	"contactbook/internal/csvio"
	apperrors "contactbook/internal/errors"
	"contactbook/internal/errors/logging"
	"contactbook/internal/logger"
)

// ExportFilename is suggested to clients downloading the CSV export.
const ExportFilename = "contacts.csv"

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.All(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := csvio.Encode(&buf, list); err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", "attachment; filename="+ExportFilename)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// handleImport inserts every valid row of a CSV body. Rows are committed one
// by one: a failing row is reported but does not undo rows already imported.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "text/csv" {
		s.writeError(w, r, apperrors.UnsupportedMediaError(apperrors.CodeUnsupportedMediaType,
			"unsupported content type, expected text/csv", err).
			WithModule("api").
			WithField("content_type", r.Header.Get("Content-Type")))
		return
	}

	dec, err := csvio.NewDecoder(r.Body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	imported := 0
	var rowErrors []string
	for {
		c, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var rowErr *csvio.RowError
		if errors.As(err, &rowErr) {
			logging.Warn(r.Context(), s.logger, "import row rejected", rowErr.AppError())
			rowErrors = append(rowErrors, rowErr.Error())
			continue
		}
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		if err := s.repo.Insert(r.Context(), c); err != nil {
			rowErrors = append(rowErrors, s.importRowError(r, dec.Line(), err))
			continue
		}
		imported++
	}

	if len(rowErrors) > 0 {
		s.logger.WarnContext(r.Context(), "import finished with errors",
			logger.Int("imported", imported),
			logger.Int("failed", len(rowErrors)),
		)
		digest := fmt.Sprintf("imported %d contacts; %d rows failed:\n%s",
			imported, len(rowErrors), strings.Join(rowErrors, "\n"))
		writeJSON(w, http.StatusBadRequest, ImportResponse{
			Error:     digest,
			Code:      apperrors.CodeImportPartial,
			Imported:  imported,
			RowErrors: rowErrors,
		})
		return
	}

	s.logger.InfoContext(r.Context(), "import finished", logger.Int("imported", imported))
	writeJSON(w, http.StatusOK, ImportResponse{
		Message:  fmt.Sprintf("imported %d contacts", imported),
		Imported: imported,
	})
}

// importRowError describes a rejected row. Conflicts name the colliding value;
// storage faults are logged and reported generically.
func (s *Server) importRowError(r *http.Request, line int, err error) string {
	if appErr, ok := apperrors.As(err); ok && appErr.Category == apperrors.ErrCategoryConflict {
		return fmt.Sprintf("line %d: %s", line, appErr.Message)
	}
	s.logger.ErrorContext(r.Context(), "import row failed",
		logger.Int("line", line),
		logger.Error(err),
	)
	return fmt.Sprintf("line %d: failed to store contact", line)
}
