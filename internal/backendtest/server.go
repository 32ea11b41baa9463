// Package backendtest runs an in-memory book catalog backend for tests.
package backendtest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// Server is a fake backend. All state lives in memory and is safe for
// concurrent use.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	users       map[string]string
	books       map[int64]book
	nextID      int64
	uploads     map[string]upload
	requests    []Request
	failures    map[string]failure
	requireAuth bool
}

type book struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Author      string `json:"author"`
	Description string `json:"description"`
	Cover       string `json:"cover"`
}

type upload struct {
	contentType string
	data        []byte
}

type failure struct {
	status int
	body   any
}

// New starts a server that is closed when t finishes.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		users:    make(map[string]string),
		books:    make(map[int64]book),
		uploads:  make(map[string]upload),
		failures: make(map[string]failure),
		nextID:   1,
	}
	s.Server = httptest.NewServer(s.routes())
	t.Cleanup(s.Close)
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record, s.inject)

	r.Post("/user/register", s.register)
	r.Post("/user/login", s.login)

	r.Group(func(r chi.Router) {
		r.Use(s.auth)
		r.Get("/book/list", s.listBooks)
		r.Post("/book/create", s.createBook)
		r.Put("/book/update", s.updateBook)
		r.Delete("/book/delete/{id}", s.deleteBook)
		r.Post("/book/upload", s.uploadFile)
		r.Get("/book/{id}", s.getBook)
	})
	r.Get("/uploads/{name}", s.serveUpload)
	return r
}

// RequireAuth makes /book routes answer 401 unless the bearer token names
// a registered user.
func (s *Server) RequireAuth(on bool) {
	s.mu.Lock()
	s.requireAuth = on
	s.mu.Unlock()
}

// Fail makes every request to route (e.g. "GET /book/list") answer with
// status and a JSON body until Recover is called. A nil body sends none.
func (s *Server) Fail(route string, status int, body any) {
	s.mu.Lock()
	s.failures[route] = failure{status: status, body: body}
	s.mu.Unlock()
}

// Recover removes a failure installed by Fail.
func (s *Server) Recover(route string) {
	s.mu.Lock()
	delete(s.failures, route)
	s.mu.Unlock()
}

// AddUser registers a user directly.
func (s *Server) AddUser(username, password string) {
	s.mu.Lock()
	s.users[username] = password
	s.mu.Unlock()
}

// AddBook stores a book directly and returns its id.
func (s *Server) AddBook(name, author, description, cover string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.books[id] = book{ID: id, Name: name, Author: author, Description: description, Cover: cover}
	return id
}

// BookCount returns the number of stored books.
func (s *Server) BookCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.books)
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request, or false if none.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Upload returns a stored upload by file name.
func (s *Server) Upload(name string) (contentType string, data []byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.uploads[name]
	return u.contentType, u.data, ok
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		// Multipart bodies are consumed by the upload handler.
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") && r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		s.mu.Lock()
		s.requests = append(s.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		f, ok := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		if f.body == nil {
			w.WriteHeader(f.status)
			return
		}
		writeJSON(w, f.status, f.body)
	})
}

func (s *Server) auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		required := s.requireAuth
		_, known := s.users[strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")]
		s.mu.Unlock()
		if required && !known {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "unauthorized"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil || c.Username == "" || c.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "username and password are required"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[c.Username]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "username already exists", "error": "Conflict"})
		return
	}
	s.users[c.Username] = c.Password
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var c credentials
	if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	s.mu.Lock()
	pw, ok := s.users[c.Username]
	s.mu.Unlock()
	if !ok || pw != c.Password {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid username or password", "error": "Bad Request"})
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) listBooks(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := make([]book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	s.mu.Lock()
	b, ok := s.books[id]
	s.mu.Unlock()
	if !ok {
		// Unknown ids answer 200 with an empty body.
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var b book
	if err := json.NewDecoder(r.Body).Decode(&b); err != nil || b.Name == "" || b.Author == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "name and author are required"})
		return
	}
	s.mu.Lock()
	b.ID = s.nextID
	s.nextID++
	s.books[b.ID] = b
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, b)
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	var patch struct {
		ID          int64   `json:"id"`
		Name        *string `json:"name"`
		Author      *string `json:"author"`
		Description *string `json:"description"`
		Cover       *string `json:"cover"`
	}
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid request body"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[patch.ID]
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "book not found"})
		return
	}
	if patch.Name != nil {
		b.Name = *patch.Name
	}
	if patch.Author != nil {
		b.Author = *patch.Author
	}
	if patch.Description != nil {
		b.Description = *patch.Description
	}
	if patch.Cover != nil {
		b.Cover = *patch.Cover
	}
	s.books[b.ID] = b
	writeJSON(w, http.StatusOK, map[string]any{"message": "updated", "code": 200})
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid id"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "book not found"})
		return
	}
	delete(s.books, id)
	writeJSON(w, http.StatusOK, map[string]any{"message": "deleted", "code": 200})
}

func (s *Server) uploadFile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid multipart body", "error": err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "file field is required"})
		return
	}
	defer func() { _ = file.Close() }()
	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "reading upload failed"})
		return
	}

	name := path.Base(header.Filename)
	s.mu.Lock()
	s.uploads[name] = upload{contentType: header.Header.Get("Content-Type"), data: data}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "uploaded",
		"filename": name,
		"path":     "/uploads/" + name,
		"size":     len(data),
	})
}

func (s *Server) serveUpload(w http.ResponseWriter, r *http.Request) {
	ct, data, ok := s.Upload(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "file not found"})
		return
	}
	w.Header().Set("Content-Type", ct)
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
