package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/corvidlabs/brochure/lib/auth"
	"github.com/corvidlabs/brochure/lib/content"
	"github.com/corvidlabs/brochure/lib/store/memory"
	"github.com/corvidlabs/brochure/lib/upload"
)

const (
	adminEmail    = "admin@example.com"
	adminPassword = "correct horse battery"
)

// pngHeader is enough for content sniffing to call it image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00\x1f\x15\xc4\x89")

type fixture struct {
	router   *chi.Mux
	db       *content.DB
	sessions *auth.Sessions
	admin  *content.User
	token  string
}

func spawnAdmin(t *testing.T, allowed []string) *fixture {
	t.Helper()

	db, err := content.Open(filepath.Join(t.TempDir(), "content.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(t.Context()); err != nil {
		t.Fatal(err)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		t.Fatal(err)
	}

	admin := &content.User{Email: adminEmail, Name: "Admin", PasswordHash: hash, Active: true}
	if err := db.Users.Create(t.Context(), admin); err != nil {
		t.Fatal(err)
	}

	st := memory.New(t.Context())

	sessions, err := auth.NewSessions(auth.Options{
		Users: db,
		Store: st,
		Key:   []byte("0123456789abcdef0123456789abcdef"),
	})
	if err != nil {
		t.Fatal(err)
	}

	allowlist, err := auth.NewAllowlist(allowed)
	if err != nil {
		t.Fatal(err)
	}

	storage, err := upload.NewLocal(t.TempDir(), "/uploads/")
	if err != nil {
		t.Fatal(err)
	}

	router, err := NewRouter(Options{
		Content:   db,
		Sessions:  sessions,
		Allowlist: allowlist,
		Uploader:  upload.New(storage, 1024, []string{"image/png"}),
		Store:     st,
	})
	if err != nil {
		t.Fatal(err)
	}

	token, err := sessions.Issue(admin)
	if err != nil {
		t.Fatal(err)
	}

	return &fixture{router: router, db: db, sessions: sessions, admin: admin, token: token}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		rdr = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}

	rw := httptest.NewRecorder()
	f.router.ServeHTTP(rw, req)
	return rw
}

func decode[T any](t *testing.T, rw *httptest.ResponseRecorder) T {
	t.Helper()

	var result T
	if err := json.NewDecoder(rw.Body).Decode(&result); err != nil {
		t.Fatalf("can't decode %q: %v", rw.Body.String(), err)
	}
	return result
}

func TestNewRouterRequiresCollaborators(t *testing.T) {
	if _, err := NewRouter(Options{}); err == nil {
		t.Fatal("wanted an error")
	}
}

func TestLoginFlow(t *testing.T) {
	f := spawnAdmin(t, nil)
	f.token = ""

	if rw := f.do(t, http.MethodGet, "/me", nil); rw.Code != http.StatusUnauthorized {
		t.Fatalf("wanted 401 before login, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodPost, "/login", loginRequest{Email: adminEmail, Password: "wrong password"}); rw.Code != http.StatusUnauthorized {
		t.Fatalf("wanted 401 for a wrong password, got %d", rw.Code)
	}

	rw := f.do(t, http.MethodPost, "/login", loginRequest{Email: adminEmail, Password: adminPassword})
	if rw.Code != http.StatusOK {
		t.Fatalf("wanted 200, got %d: %s", rw.Code, rw.Body.String())
	}

	cookies := rw.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Fatalf("wanted one HttpOnly session cookie, got %v", cookies)
	}

	resp := decode[loginResponse](t, rw)
	if resp.User == nil || resp.User.Email != adminEmail || resp.User.LastLoginAt == nil {
		t.Errorf("unexpected user in response: %+v", resp.User)
	}
	if strings.Contains(rw.Body.String(), "$2a$") {
		t.Error("password hash leaked into the response")
	}

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	f.router.ServeHTTP(me, req)

	if me.Code != http.StatusOK {
		t.Fatalf("wanted the cookie to authenticate, got %d", me.Code)
	}

	f.token = resp.Token
	if rw := f.do(t, http.MethodPost, "/logout", nil); rw.Code != http.StatusNoContent {
		t.Fatalf("wanted 204 from logout, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodGet, "/me", nil); rw.Code != http.StatusUnauthorized {
		t.Errorf("wanted the session to be revoked, got %d", rw.Code)
	}
}

func TestProtectedRoutes(t *testing.T) {
	f := spawnAdmin(t, nil)
	f.token = ""

	for _, path := range []string{"/pages", "/services/1", "/messages", "/users", "/stats"} {
		t.Run(path, func(t *testing.T) {
			if rw := f.do(t, http.MethodGet, path, nil); rw.Code != http.StatusUnauthorized {
				t.Errorf("wanted 401, got %d", rw.Code)
			}
		})
	}

	if rw := f.do(t, http.MethodGet, "/health", nil); rw.Code != http.StatusOK {
		t.Errorf("health should be public, got %d", rw.Code)
	}
}

func TestCRUD(t *testing.T) {
	f := spawnAdmin(t, nil)

	rw := f.do(t, http.MethodPost, "/services", map[string]any{
		"id":     99,
		"slug":   "audits",
		"title":  "Security audits",
		"active": true,
	})
	if rw.Code != http.StatusCreated {
		t.Fatalf("wanted 201, got %d: %s", rw.Code, rw.Body.String())
	}

	created := decode[content.Service](t, rw)
	if created.ID == 0 || created.ID == 99 {
		t.Errorf("wanted a database assigned id, got %d", created.ID)
	}

	if rw := f.do(t, http.MethodPost, "/services", map[string]any{"slug": "audits", "title": "Again"}); rw.Code != http.StatusConflict {
		t.Errorf("wanted 409 for a duplicate slug, got %d", rw.Code)
	}

	list := decode[listing[content.Service]](t, f.do(t, http.MethodGet, "/services", nil))
	if list.Total != 1 || len(list.Items) != 1 {
		t.Fatalf("wanted one service, got %+v", list)
	}

	path := fmt.Sprintf("/services/%d", created.ID)

	rw = f.do(t, http.MethodPut, path, map[string]any{
		"slug":   "audits",
		"title":  "Penetration testing",
		"active": false,
	})
	if rw.Code != http.StatusOK {
		t.Fatalf("wanted 200, got %d: %s", rw.Code, rw.Body.String())
	}

	updated := decode[content.Service](t, rw)
	if updated.Title != "Penetration testing" || updated.Active {
		t.Errorf("update not applied: %+v", updated)
	}

	active := decode[listing[content.Service]](t, f.do(t, http.MethodGet, "/services?active=true", nil))
	if active.Total != 0 {
		t.Errorf("inactive service listed as active")
	}

	if rw := f.do(t, http.MethodDelete, path, nil); rw.Code != http.StatusNoContent {
		t.Fatalf("wanted 204, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodGet, path, nil); rw.Code != http.StatusNotFound {
		t.Errorf("wanted 404 after delete, got %d", rw.Code)
	}
}

func TestBadRequests(t *testing.T) {
	f := spawnAdmin(t, nil)

	for _, tt := range []struct {
		name, method, path string
	}{
		{"bad id", http.MethodGet, "/pages/abc"},
		{"zero id", http.MethodGet, "/pages/0"},
		{"bad limit", http.MethodGet, "/pages?limit=-1"},
		{"bad active", http.MethodGet, "/pages?active=sometimes"},
		{"bad section filter", http.MethodGet, "/sections?page=x"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if rw := f.do(t, tt.method, tt.path, nil); rw.Code != http.StatusBadRequest {
				t.Errorf("wanted 400, got %d", rw.Code)
			}
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/pages", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+f.token)
	rw := httptest.NewRecorder()
	f.router.ServeHTTP(rw, req)

	if rw.Code != http.StatusBadRequest {
		t.Errorf("wanted 400 for broken JSON, got %d", rw.Code)
	}
}

func TestSectionFilter(t *testing.T) {
	f := spawnAdmin(t, nil)

	for _, pageID := range []uint{1, 1, 2} {
		s := &content.Section{PageID: pageID, Heading: "h"}
		if err := f.db.Sections.Create(t.Context(), s); err != nil {
			t.Fatal(err)
		}
	}

	list := decode[listing[content.Section]](t, f.do(t, http.MethodGet, "/sections?page=1", nil))
	if list.Total != 2 {
		t.Errorf("wanted 2 sections on page 1, got %d", list.Total)
	}
}

func TestUsers(t *testing.T) {
	f := spawnAdmin(t, nil)

	if rw := f.do(t, http.MethodPost, "/users", userInput{Email: "ed@example.com", Password: "short"}); rw.Code != http.StatusBadRequest {
		t.Errorf("wanted 400 for a short password, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodPost, "/users", userInput{Email: "not an address", Password: "long enough password"}); rw.Code != http.StatusBadRequest {
		t.Errorf("wanted 400 for a bad email, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodPost, "/users", userInput{Email: "ed@example.com"}); rw.Code != http.StatusBadRequest {
		t.Errorf("wanted 400 without a password, got %d", rw.Code)
	}

	rw := f.do(t, http.MethodPost, "/users", userInput{Email: "ed@example.com", Name: "Ed", Password: "long enough password"})
	if rw.Code != http.StatusCreated {
		t.Fatalf("wanted 201, got %d: %s", rw.Code, rw.Body.String())
	}
	user := decode[content.User](t, rw)

	stored, err := f.db.Users.Get(t.Context(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if stored.PasswordHash == "" || stored.PasswordHash == "long enough password" {
		t.Fatal("password was not hashed")
	}
	if !stored.Active {
		t.Error("new users should default to active")
	}

	rw = f.do(t, http.MethodPut, fmt.Sprintf("/users/%d", user.ID), map[string]any{"name": "Edward"})
	if rw.Code != http.StatusOK {
		t.Fatalf("wanted 200, got %d", rw.Code)
	}

	after, err := f.db.Users.Get(t.Context(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if after.Name != "Edward" || after.Email != "ed@example.com" {
		t.Errorf("unexpected user after update: %+v", after)
	}
	if after.PasswordHash != stored.PasswordHash {
		t.Error("updating the name must keep the password")
	}

	if rw := f.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", f.admin.ID), nil); rw.Code != http.StatusConflict {
		t.Errorf("wanted 409 when deleting yourself, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodDelete, fmt.Sprintf("/users/%d", user.ID), nil); rw.Code != http.StatusNoContent {
		t.Errorf("wanted 204, got %d", rw.Code)
	}
}

func TestMessages(t *testing.T) {
	f := spawnAdmin(t, nil)

	msg := &content.Message{Name: "Ada", Email: "ada@example.com", Body: "Hello"}
	if err := f.db.Messages.Create(t.Context(), msg); err != nil {
		t.Fatal(err)
	}

	unread := decode[listing[content.Message]](t, f.do(t, http.MethodGet, "/messages?read=false", nil))
	if unread.Total != 1 {
		t.Fatalf("wanted 1 unread message, got %d", unread.Total)
	}

	if rw := f.do(t, http.MethodPost, fmt.Sprintf("/messages/%d/read", msg.ID), nil); rw.Code != http.StatusNoContent {
		t.Fatalf("wanted 204, got %d", rw.Code)
	}

	unread = decode[listing[content.Message]](t, f.do(t, http.MethodGet, "/messages?read=false", nil))
	if unread.Total != 0 {
		t.Errorf("wanted no unread messages, got %d", unread.Total)
	}

	s := decode[stats](t, f.do(t, http.MethodGet, "/stats", nil))
	if s.Messages != 1 || s.UnreadMessages != 0 {
		t.Errorf("unexpected stats: %+v", s)
	}

	if rw := f.do(t, http.MethodPost, "/messages/12345/read", nil); rw.Code != http.StatusNotFound {
		t.Errorf("wanted 404 for a missing message, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodPost, "/messages", map[string]any{"name": "x"}); rw.Code != http.StatusMethodNotAllowed {
		t.Errorf("messages are created by the contact form only, got %d", rw.Code)
	}
}

func TestUploads(t *testing.T) {
	f := spawnAdmin(t, nil)

	raw := func(body []byte) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/uploads", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/octet-stream")
		req.Header.Set("Authorization", "Bearer "+f.token)
		rw := httptest.NewRecorder()
		f.router.ServeHTTP(rw, req)
		return rw
	}

	for _, tt := range []struct {
		name   string
		body   []byte
		status int
	}{
		{"png", pngHeader, http.StatusCreated},
		{"text", []byte("just some text"), http.StatusUnsupportedMediaType},
		{"empty", nil, http.StatusBadRequest},
		{"too large", append(append([]byte{}, pngHeader...), make([]byte, 2048)...), http.StatusRequestEntityTooLarge},
	} {
		t.Run(tt.name, func(t *testing.T) {
			if rw := raw(tt.body); rw.Code != tt.status {
				t.Errorf("wanted %d, got %d: %s", tt.status, rw.Code, rw.Body.String())
			}
		})
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.txt")
	if err != nil {
		t.Fatal(err)
	}
	part.Write(pngHeader)
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/uploads", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+f.token)
	rw := httptest.NewRecorder()
	f.router.ServeHTTP(rw, req)

	if rw.Code != http.StatusCreated {
		t.Fatalf("wanted 201 for multipart upload, got %d: %s", rw.Code, rw.Body.String())
	}

	stored := decode[upload.Stored](t, rw)
	if !strings.HasSuffix(stored.Name, ".png") || stored.MIME != "image/png" {
		t.Errorf("the file name should not decide the type: %+v", stored)
	}

	if rw := f.do(t, http.MethodDelete, "/uploads/"+stored.Name, nil); rw.Code != http.StatusNoContent {
		t.Errorf("wanted 204, got %d", rw.Code)
	}

	if rw := f.do(t, http.MethodDelete, "/uploads/"+stored.Name, nil); rw.Code != http.StatusNotFound {
		t.Errorf("wanted 404 for a deleted file, got %d", rw.Code)
	}
}

func TestAllowlist(t *testing.T) {
	f := spawnAdmin(t, []string{"10.0.0.0/8"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.10:4321"
	rw := httptest.NewRecorder()
	f.router.ServeHTTP(rw, req)

	if rw.Code != http.StatusForbidden {
		t.Errorf("wanted 403 from outside the allowlist, got %d", rw.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "10.1.2.3:4321"
	rw = httptest.NewRecorder()
	f.router.ServeHTTP(rw, req)

	if rw.Code != http.StatusOK {
		t.Errorf("wanted 200 from inside the allowlist, got %d", rw.Code)
	}
}

func TestHealth(t *testing.T) {
	f := spawnAdmin(t, nil)

	rw := f.do(t, http.MethodGet, "/health", nil)
	if rw.Code != http.StatusOK {
		t.Fatalf("wanted 200, got %d: %s", rw.Code, rw.Body.String())
	}

	var report healthReport
	if err := json.NewDecoder(rw.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report != (healthReport{Status: "ok", Database: "ok", Store: "ok"}) {
		t.Errorf("unexpected report: %+v", report)
	}

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	router, err := NewRouter(Options{
		Content:  f.db,
		Sessions: f.sessions,
		Store:    memory.New(ctx),
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rw = httptest.NewRecorder()
	router.ServeHTTP(rw, req)

	if rw.Code != http.StatusServiceUnavailable {
		t.Fatalf("wanted 503 with a closed store, got %d", rw.Code)
	}
	if err := json.NewDecoder(rw.Body).Decode(&report); err != nil {
		t.Fatal(err)
	}
	if report.Status != "degraded" || report.Store != "unavailable" || report.Database != "ok" {
		t.Errorf("unexpected report: %+v", report)
	}
}
