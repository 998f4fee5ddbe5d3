package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"contactbook/internal/data/contacts"
	"contactbook/internal/logger"
)

// handleList returns all contacts, or those matching the optional query parameter.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	list, err := s.repo.List(r.Context(), r.URL.Query().Get("query"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req AddRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	c := contacts.Contact{
		Name:    strings.TrimSpace(req.Name),
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if c.Name == "" || c.Phone == "" || c.Address == "" {
		s.writeError(w, r, missingFields("name, phone and address are required"))
		return
	}

	if err := s.repo.Insert(r.Context(), c); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "contact added", logger.String("name", c.Name))
	writeJSON(w, http.StatusCreated, MessageResponse{Message: fmt.Sprintf("contact %q added", c.Name)})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	var req UpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := contacts.UpdateInput{
		Phone:   strings.TrimSpace(req.Phone),
		Address: strings.TrimSpace(req.Address),
	}
	if in.Empty() {
		s.writeError(w, r, missingFields("phone or address is required to update a contact"))
		return
	}

	if err := s.repo.Update(r.Context(), name, in); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "contact updated", logger.String("name", name))
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("contact %q updated", name)})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	if err := s.repo.Delete(r.Context(), name); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.InfoContext(r.Context(), "contact deleted", logger.String("name", name))
	writeJSON(w, http.StatusOK, MessageResponse{Message: fmt.Sprintf("contact %q deleted", name)})
}

// handleOperatorMessage records a free-text report sent from the client.
func (s *Server) handleOperatorMessage(w http.ResponseWriter, r *http.Request) {
	var req OperatorMessageRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	text := strings.TrimSpace(req.Message)
	if text == "" {
		s.writeError(w, r, missingFields("message is required"))
		return
	}

	s.logger.InfoContext(r.Context(), "operator message received", logger.String("message", text))
	writeJSON(w, http.StatusOK, OperatorMessageResponse{
		Status:  "success",
		Message: "message received, thanks for the report",
	})
}

// handleShutdown acknowledges first; the owner stops the server once Done is closed.
func (s *Server) handleShutdown(w http.ResponseWriter, r *http.Request) {
	s.logger.WarnContext(r.Context(), "shutdown requested")
	writeJSON(w, http.StatusOK, MessageResponse{Message: "server shutting down"})
	s.requestShutdown()
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	n, err := s.repo.Count(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "ok",
		Contacts:  n,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
