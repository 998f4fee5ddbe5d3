package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"contactbook/internal/data/contacts"
	"contactbook/internal/logger"
)

func newTestServer(t *testing.T) (*Server, *contacts.SQLiteRepository, *logger.MockLogger) {
	t.Helper()
	db, err := contacts.OpenDatabase(filepath.Join(t.TempDir(), "contacts.db"), time.Second)
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := contacts.NewSQLiteRepository(db)
	if err := repo.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	log := logger.NewMockLogger()
	return NewServer(repo, log, Options{Addr: "127.0.0.1:0", MaxBodyBytes: 1 << 16}), repo, log
}

func do(t *testing.T, srv *Server, method, target, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)
	return rr
}

func doJSON(t *testing.T, srv *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	return do(t, srv, method, target, "application/json", body)
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("unmarshal response: %v; body=%s", err, rr.Body.String())
	}
	return v
}

func listContacts(t *testing.T, srv *Server, query string) []contacts.Contact {
	t.Helper()
	target := "/contacts"
	if query != "" {
		target += "?query=" + query
	}
	rr := do(t, srv, http.MethodGet, target, "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on list, got %d; body=%s", rr.Code, rr.Body.String())
	}
	return decodeBody[[]contacts.Contact](t, rr)
}

func addContact(t *testing.T, srv *Server, name, phone, address string) {
	t.Helper()
	body := fmt.Sprintf(`{"name":%q,"phone":%q,"address":%q}`, name, phone, address)
	rr := doJSON(t, srv, http.MethodPost, "/contacts", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201 adding %s, got %d; body=%s", name, rr.Code, rr.Body.String())
	}
}

func TestListEmptyReturnsEmptyArray(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := do(t, srv, http.MethodGet, "/contacts", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Fatalf("expected empty JSON array, got %s", rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("content type = %q", ct)
	}
}

func TestAddThenList(t *testing.T) {
	srv, _, log := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/contacts", `{"name":"Ana","phone":"555-0001","address":"Calle 1"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d; body=%s", rr.Code, rr.Body.String())
	}
	if msg := decodeBody[MessageResponse](t, rr).Message; !strings.Contains(msg, "Ana") {
		t.Errorf("message = %q", msg)
	}

	got := listContacts(t, srv, "")
	want := contacts.Contact{Name: "Ana", Phone: "555-0001", Address: "Calle 1"}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("list = %+v, want [%+v]", got, want)
	}
	if !log.HasEntry(logger.LevelInfo, "contact added") {
		t.Error("expected contact added log entry")
	}
}

func TestAddValidation(t *testing.T) {
	srv, _, _ := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"phone":"1","address":"x"}`},
		{"missing phone", `{"name":"Ana","address":"x"}`},
		{"missing address", `{"name":"Ana","phone":"1"}`},
		{"blank name", `{"name":"  ","phone":"1","address":"x"}`},
		{"empty object", `{}`},
		{"invalid json", `{"name":`},
		{"empty body", ``},
		{"two values", `{"name":"Ana","phone":"1","address":"x"} {}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/contacts", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d; body=%s", rr.Code, rr.Body.String())
			}
			if decodeBody[ErrorResponse](t, rr).Error == "" {
				t.Error("expected error message")
			}
		})
	}
	if n := len(listContacts(t, srv, "")); n != 0 {
		t.Fatalf("invalid adds stored %d contacts", n)
	}
}

func TestAddDuplicateNameKeepsOriginal(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana", "555-0001", "Calle 1")

	rr := doJSON(t, srv, http.MethodPost, "/contacts", `{"name":"Ana","phone":"555-0002","address":"Calle 2"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d; body=%s", rr.Code, rr.Body.String())
	}
	if msg := decodeBody[ErrorResponse](t, rr).Error; !strings.Contains(msg, `"Ana"`) {
		t.Errorf("error = %q, want it to name the contact", msg)
	}

	got := listContacts(t, srv, "Ana")
	if len(got) != 1 || got[0].Phone != "555-0001" {
		t.Fatalf("store after duplicate = %+v", got)
	}
}

func TestAddDuplicatePhone(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana", "555-0001", "Calle 1")

	rr := doJSON(t, srv, http.MethodPost, "/contacts", `{"name":"Bob","phone":"555-0001","address":"Calle 2"}`)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d; body=%s", rr.Code, rr.Body.String())
	}
	if msg := decodeBody[ErrorResponse](t, rr).Error; !strings.Contains(msg, "555-0001") {
		t.Errorf("error = %q, want it to name the phone", msg)
	}
}

func TestSearch(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana", "555-0001", "Calle 1")
	addContact(t, srv, "Bob", "777-1111", "Avenida 2")

	if got := listContacts(t, srv, "Avenida"); len(got) != 1 || got[0].Name != "Bob" {
		t.Fatalf("search by address = %+v", got)
	}
	if got := listContacts(t, srv, "555"); len(got) != 1 || got[0].Name != "Ana" {
		t.Fatalf("search by phone = %+v", got)
	}
	if got := listContacts(t, srv, "nobody"); len(got) != 0 {
		t.Fatalf("search without match = %+v", got)
	}
}

func TestUpdatePhoneOnly(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Bob", "555-1111", "Calle X")

	rr := doJSON(t, srv, http.MethodPut, "/contacts/Bob", `{"phone":"555-2222"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}

	got := listContacts(t, srv, "Bob")
	want := contacts.Contact{Name: "Bob", Phone: "555-2222", Address: "Calle X"}
	if len(got) != 1 || got[0] != want {
		t.Fatalf("after update = %+v, want %+v", got, want)
	}
}

func TestUpdateNameWithSpaces(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana Maria", "1", "Calle 1")

	rr := doJSON(t, srv, http.MethodPut, "/contacts/Ana%20Maria", `{"address":"Calle 9"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	if got := listContacts(t, srv, "Calle%209"); len(got) != 1 || got[0].Name != "Ana Maria" {
		t.Fatalf("after update = %+v", got)
	}
}

func TestUpdateErrors(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana", "555-0001", "Calle 1")
	addContact(t, srv, "Bob", "555-1111", "Calle X")

	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"no fields", "/contacts/Bob", `{}`, http.StatusBadRequest},
		{"blank fields", "/contacts/Bob", `{"phone":" ","address":""}`, http.StatusBadRequest},
		{"unknown contact", "/contacts/Zoe", `{"address":"x"}`, http.StatusNotFound},
		{"unknown contact with taken phone", "/contacts/Zoe", `{"phone":"555-0001"}`, http.StatusNotFound},
		{"phone of another contact", "/contacts/Bob", `{"phone":"555-0001"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPut, tt.target, tt.body)
			if rr.Code != tt.want {
				t.Fatalf("expected %d, got %d; body=%s", tt.want, rr.Code, rr.Body.String())
			}
		})
	}

	got := listContacts(t, srv, "")
	if len(got) != 2 || got[1].Phone != "555-1111" {
		t.Fatalf("failed updates changed the store: %+v", got)
	}
}

func TestDelete(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana", "555-0001", "Calle 1")

	rr := do(t, srv, http.MethodDelete, "/contacts/Ana", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	if got := listContacts(t, srv, "Ana"); len(got) != 0 {
		t.Fatalf("search after delete = %+v", got)
	}

	rr = do(t, srv, http.MethodDelete, "/contacts/Ana", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d; body=%s", rr.Code, rr.Body.String())
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv, _, _ := newTestServer(t)
	rr := do(t, srv, http.MethodPatch, "/contacts", "", "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rr.Code)
	}
}

func TestOperatorMessage(t *testing.T) {
	srv, _, log := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/messages", `{"message":"the search box is slow"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d; body=%s", rr.Code, rr.Body.String())
	}
	if resp := decodeBody[OperatorMessageResponse](t, rr); resp.Status != "success" {
		t.Errorf("status = %q", resp.Status)
	}
	if v, ok := log.FieldValue("operator message received", "message"); !ok || v != "the search box is slow" {
		t.Errorf("logged message = %v, %v", v, ok)
	}

	rr = doJSON(t, srv, http.MethodPost, "/messages", `{"message":"  "}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for empty message, got %d", rr.Code)
	}
}

func TestHealthz(t *testing.T) {
	srv, _, _ := newTestServer(t)
	addContact(t, srv, "Ana", "1", "x")

	rr := do(t, srv, http.MethodGet, "/healthz", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	resp := decodeBody[HealthResponse](t, rr)
	if resp.Status != "ok" || resp.Contacts != 1 {
		t.Errorf("health = %+v", resp)
	}
}

func TestRequestIDPropagation(t *testing.T) {
	srv, _, log := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/contacts", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	if got := rr.Header().Get(RequestIDHeader); got != "req-42" {
		t.Errorf("response request id = %q", got)
	}
	if v, ok := log.FieldValue("request handled", "request_id"); !ok || v != "req-42" {
		t.Errorf("access log request_id = %v, %v", v, ok)
	}

	rr = do(t, srv, http.MethodGet, "/contacts", "", "")
	if rr.Header().Get(RequestIDHeader) == "" {
		t.Error("expected a generated request id")
	}
}

func TestBodyLimit(t *testing.T) {
	srv, _, _ := newTestServer(t)
	big := fmt.Sprintf(`{"name":"Ana","phone":"1","address":%q}`, strings.Repeat("x", 1<<17))

	rr := doJSON(t, srv, http.MethodPost, "/contacts", big)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d; body=%s", rr.Code, rr.Body.String())
	}
}

func TestShutdownAcknowledgesThenSignals(t *testing.T) {
	srv, _, _ := newTestServer(t)

	select {
	case <-srv.Done():
		t.Fatal("Done closed before shutdown was requested")
	default:
	}

	rr := do(t, srv, http.MethodPost, "/shutdown", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if decodeBody[MessageResponse](t, rr).Message == "" {
		t.Error("expected acknowledgement message")
	}

	select {
	case <-srv.Done():
	case <-time.After(time.Second):
		t.Fatal("Done not closed after shutdown request")
	}

	// a second request must not panic on the closed channel
	if rr := do(t, srv, http.MethodPost, "/shutdown", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeated shutdown, got %d", rr.Code)
	}
}

func TestStartStop(t *testing.T) {
	srv, _, _ := newTestServer(t)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + srv.Addr() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	if err := srv.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if _, err := http.Get("http://" + srv.Addr() + "/healthz"); err == nil {
		t.Fatal("expected connection error after Stop")
	}
	select {
	case err, ok := <-srv.Failed():
		if ok {
			t.Fatalf("Failed delivered %v after a clean Stop", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Failed was not closed after Stop")
	}
}

func TestFailedReportsServeError(t *testing.T) {
	srv, _, log := newTestServer(t)
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	srv.mu.Lock()
	_ = srv.listener.Close()
	srv.mu.Unlock()

	select {
	case err, ok := <-srv.Failed():
		if !ok || err == nil {
			t.Fatalf("expected serve error, got %v (ok=%v)", err, ok)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("serve error was not reported")
	}
	if !log.HasEntry(logger.LevelError, "serve failed") {
		t.Fatal("expected serve failure to be logged")
	}
}
