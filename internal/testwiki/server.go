// Package testwiki is an in-memory Confluence fake served over httptest,
// for tests of the client, the publish pipeline and the CLI.
package testwiki

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// BasePath is where the fake mounts the API, like Confluence Cloud's /wiki.
const BasePath = "/wiki/"

// Page is a stored page.
type Page struct {
	ID       string
	SpaceID  string
	Title    string
	ParentID string
	Version  int
	Message  string
	Body     string
}

// Attachment is a stored upload.
type Attachment struct {
	PageID      string
	Name        string
	ContentType string
	Comment     string
	Data        []byte
	Token       string
}

// Request is a recorded API call.
type Request struct {
	Method string
	Path   string
	Query  string
}

type failure struct {
	match  func(*http.Request) bool
	status int
}

// Server is the fake. Its zero value is not usable; call New.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	spaces      map[string]string
	pages       []*Page
	attachments []Attachment
	requests    []Request
	failures    []failure
	nextID      int
	user, pass  string
}

// New starts a fake accepting the given basic auth credentials. It is
// closed when the test ends.
func New(t testing.TB, user, pass string) *Server {
	t.Helper()
	s := &Server{spaces: map[string]string{}, nextID: 1000, user: user, pass: pass}

	mux := http.NewServeMux()
	mux.HandleFunc("GET "+BasePath+"api/v2/spaces", s.getSpaces)
	mux.HandleFunc("GET "+BasePath+"api/v2/pages", s.getPages)
	mux.HandleFunc("POST "+BasePath+"api/v2/pages", s.createPage)
	mux.HandleFunc("PUT "+BasePath+"api/v2/pages/{id}", s.updatePage)
	mux.HandleFunc("PUT "+BasePath+"rest/api/content/{id}/child/attachment", s.upload)

	s.srv = httptest.NewServer(s.middleware(mux))
	t.Cleanup(s.srv.Close)
	return s
}

// URL is the host to configure a client with.
func (s *Server) URL() string { return s.srv.URL + BasePath }

// AddSpace registers a space.
func (s *Server) AddSpace(key, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spaces[key] = id
}

// AddPage stores an existing page and returns its id.
func (s *Server) AddPage(spaceID, title, parentID string, version int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.pages = append(s.pages, &Page{ID: id, SpaceID: spaceID, Title: title, ParentID: parentID, Version: version})
	return id
}

// FailWhen makes matching requests answer with status.
func (s *Server) FailWhen(match func(*http.Request) bool, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures = append(s.failures, failure{match: match, status: status})
}

// PageByTitle returns a copy of the stored page.
func (s *Server) PageByTitle(title string) (Page, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p := s.findTitle("", title); p != nil {
		return *p, true
	}
	return Page{}, false
}

// Pages returns copies of all pages in creation order.
func (s *Server) Pages() []Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Page, 0, len(s.pages))
	for _, p := range s.pages {
		out = append(out, *p)
	}
	return out
}

// Attachments returns all uploads in order.
func (s *Server) Attachments() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attachment(nil), s.attachments...)
}

// Requests returns the recorded calls in order.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// Writes returns the recorded calls that are not GETs.
func (s *Server) Writes() []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method != http.MethodGet {
			out = append(out, r)
		}
	}
	return out
}

func (s *Server) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery})
		status := 0
		for _, f := range s.failures {
			if f.match(r) {
				status = f.status
				break
			}
		}
		s.mu.Unlock()

		if user, pass, ok := r.BasicAuth(); !ok || user != s.user || pass != s.pass {
			http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
			return
		}
		if status != 0 {
			http.Error(w, fmt.Sprintf(`{"message":"injected failure %d"}`, status), status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) newID() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func (s *Server) findTitle(spaceID, title string) *Page {
	for _, p := range s.pages {
		if p.Title == title && (spaceID == "" || p.SpaceID == spaceID) {
			return p
		}
	}
	return nil
}

func (s *Server) findID(id string) *Page {
	for _, p := range s.pages {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) getSpaces(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := r.URL.Query().Get("keys")
	results := []map[string]string{}
	if id, ok := s.spaces[key]; ok {
		results = append(results, map[string]string{"id": id, "key": key})
	}
	writeJSON(w, map[string]any{"results": results})
}

func (s *Server) getPages(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := r.URL.Query()
	results := []map[string]any{}
	if p := s.findTitle(q.Get("space-id"), q.Get("title")); p != nil {
		results = append(results, map[string]any{
			"id":      p.ID,
			"title":   p.Title,
			"version": map[string]any{"number": p.Version},
		})
	}
	writeJSON(w, map[string]any{"results": results})
}

type pageRequest struct {
	ID       string  `json:"id"`
	SpaceID  string  `json:"spaceId"`
	Status   string  `json:"status"`
	Title    string  `json:"title"`
	ParentID *string `json:"parentId"`
	Body     struct {
		Storage struct {
			Value          string `json:"value"`
			Representation string `json:"representation"`
		} `json:"storage"`
	} `json:"body"`
	Version struct {
		Number  int    `json:"number"`
		Message string `json:"message"`
	} `json:"version"`
}

func decodePage(w http.ResponseWriter, r *http.Request) (pageRequest, bool) {
	var in pageRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		http.Error(w, `{"message":"bad json"}`, http.StatusBadRequest)
		return in, false
	}
	if in.Status != "current" || in.Body.Storage.Representation != "storage" {
		http.Error(w, `{"message":"unsupported status or representation"}`, http.StatusBadRequest)
		return in, false
	}
	return in, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *Server) createPage(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePage(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.findTitle(in.SpaceID, in.Title) != nil {
		http.Error(w, `{"message":"A page with this title already exists"}`, http.StatusBadRequest)
		return
	}
	parent := deref(in.ParentID)
	if parent != "" && s.findID(parent) == nil {
		http.Error(w, `{"message":"parent not found"}`, http.StatusBadRequest)
		return
	}
	p := &Page{ID: s.newID(), SpaceID: in.SpaceID, Title: in.Title, ParentID: parent, Version: 1, Body: in.Body.Storage.Value}
	s.pages = append(s.pages, p)
	writeJSON(w, map[string]any{"id": p.ID, "title": p.Title})
}

func (s *Server) updatePage(w http.ResponseWriter, r *http.Request) {
	in, ok := decodePage(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.findID(r.PathValue("id"))
	if p == nil || in.ID != p.ID {
		http.Error(w, `{"message":"page not found"}`, http.StatusNotFound)
		return
	}
	if in.Version.Number != p.Version+1 {
		http.Error(w, `{"message":"version conflict"}`, http.StatusConflict)
		return
	}
	p.Title = in.Title
	p.ParentID = deref(in.ParentID)
	p.Version = in.Version.Number
	p.Message = in.Version.Message
	p.Body = in.Body.Storage.Value
	writeJSON(w, map[string]any{"id": p.ID})
}

func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, `{"message":"bad multipart"}`, http.StatusBadRequest)
		return
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"message":"missing file"}`, http.StatusBadRequest)
		return
	}
	defer func() { _ = f.Close() }()
	data, _ := io.ReadAll(f)

	s.mu.Lock()
	defer s.mu.Unlock()
	id := r.PathValue("id")
	if s.findID(id) == nil {
		http.Error(w, `{"message":"page not found"}`, http.StatusNotFound)
		return
	}
	s.attachments = append(s.attachments, Attachment{
		PageID:      id,
		Name:        hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Comment:     r.FormValue("comment"),
		Data:        data,
		Token:       r.Header.Get("X-Atlassian-Token"),
	})
	writeJSON(w, map[string]any{"results": []any{}})
}
