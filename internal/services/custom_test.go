package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
	tu "github.com/desertthunder/streamsavvy/internal/testing"
)

// fakeMockAPI is a minimal json-server stand-in.
type fakeMockAPI struct {
	mu     sync.Mutex
	movies map[int64]models.CustomMovie
	emails map[string]bool
	nextID int64
}

func newFakeMockAPI(t *testing.T) (*MockAPIClient, *fakeMockAPI) {
	t.Helper()
	f := &fakeMockAPI{movies: map[int64]models.CustomMovie{}, emails: map[string]bool{}, nextID: 1000}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/movies", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		list := []models.CustomMovie{}
		for id := int64(1000); id <= f.nextID; id++ {
			if m, ok := f.movies[id]; ok {
				list = append(list, m)
			}
		}
		json.NewEncoder(w).Encode(list)
	})
	mux.HandleFunc("POST /api/movies", func(w http.ResponseWriter, r *http.Request) {
		var m models.CustomMovie
		json.NewDecoder(r.Body).Decode(&m)
		f.mu.Lock()
		f.nextID++
		m.ID = f.nextID
		f.movies[m.ID] = m
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(m)
	})
	item := func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.PathValue("id"), 10, 64)
		f.mu.Lock()
		defer f.mu.Unlock()
		m, ok := f.movies[id]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{}`))
			return
		}
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(m)
		case http.MethodPut:
			var next models.CustomMovie
			json.NewDecoder(r.Body).Decode(&next)
			next.ID = id
			f.movies[id] = next
			json.NewEncoder(w).Encode(next)
		case http.MethodDelete:
			delete(f.movies, id)
			w.Write([]byte(`{}`))
		}
	}
	mux.HandleFunc("GET /api/movies/{id}", item)
	mux.HandleFunc("PUT /api/movies/{id}", item)
	mux.HandleFunc("DELETE /api/movies/{id}", item)
	mux.HandleFunc("POST /api/users", func(w http.ResponseWriter, r *http.Request) {
		var u map[string]any
		json.NewDecoder(r.Body).Decode(&u)
		email, _ := u["email"].(string)
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.emails[email] {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"error":"Email already in use","status":400}`))
			return
		}
		f.emails[email] = true
		u["id"] = 1700000000000
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(u)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return NewMockAPIClient(server.URL+"/api/", server.Client(), log.New(&bytes.Buffer{})), f
}

func TestNewCustomMovie(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		m := NewCustomMovie("Home Video", "https://v.example/home.mp4", CustomExtras{})

		if m.Overview != "Custom movie: Home Video" {
			t.Errorf("unexpected overview %q", m.Overview)
		}
		if m.ReleaseDate != time.Now().Format(time.DateOnly) {
			t.Errorf("expected today's date, got %q", m.ReleaseDate)
		}
		if m.OriginalLanguage != "en" || m.OriginalTitle != "Home Video" {
			t.Errorf("unexpected language/title defaults %+v", m)
		}
		if m.GenreIDs == nil || len(m.GenreIDs) != 0 {
			t.Errorf("expected empty genre list, got %v", m.GenreIDs)
		}
		if !m.Video || m.Adult || m.VoteAverage != 0 {
			t.Errorf("unexpected flags %+v", m)
		}
		if err := shared.ValidateStruct(m); err != nil {
			t.Errorf("defaults should validate, got %v", err)
		}
	})

	t.Run("Extras Win", func(t *testing.T) {
		m := NewCustomMovie("Film", "https://v.example/f.mp4", CustomExtras{
			Overview:         "Mine",
			ReleaseDate:      "2001-01-01",
			GenreIDs:         []int{18},
			OriginalLanguage: "fr",
			OriginalTitle:    "Le Film",
		})
		if m.Overview != "Mine" || m.ReleaseDate != "2001-01-01" || m.OriginalLanguage != "fr" || m.OriginalTitle != "Le Film" || m.GenreIDs[0] != 18 {
			t.Errorf("extras not applied: %+v", m)
		}
	})
}

func TestMockAPIClient(t *testing.T) {
	ctx := context.Background()

	t.Run("CRUD", func(t *testing.T) {
		c, _ := newFakeMockAPI(t)

		created, err := c.Create(ctx, NewCustomMovie("Home Video", "https://v.example/home.mp4", CustomExtras{}))
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.ID == 0 {
			t.Fatal("expected server-assigned id")
		}

		got, err := c.Get(ctx, created.ID)
		if err != nil || got.Title != "Home Video" {
			t.Fatalf("Get() = %+v, %v", got, err)
		}

		got.Title = "Home Video (Cut)"
		updated, err := c.Update(ctx, *got)
		if err != nil || updated.Title != "Home Video (Cut)" {
			t.Fatalf("Update() = %+v, %v", updated, err)
		}

		list, err := c.List(ctx)
		if err != nil || len(list) != 1 {
			t.Fatalf("List() = %v, %v", list, err)
		}

		if err := c.Delete(ctx, created.ID); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, err := c.Get(ctx, created.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound after delete, got %v", err)
		}
		if err := c.Delete(ctx, created.ID); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound deleting twice, got %v", err)
		}
	})

	t.Run("Create Validates", func(t *testing.T) {
		c, f := newFakeMockAPI(t)
		tests := []models.CustomMovie{
			{VideoURL: "https://v.example/a.mp4"},
			{Title: "No video"},
			{Title: "Bad video", VideoURL: "ftp://v.example/a.mp4"},
			{Title: "Bad vote", VideoURL: "https://v.example/a.mp4", VoteAverage: 11},
		}
		for _, m := range tests {
			if _, err := c.Create(ctx, m); !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("Create(%+v): expected ErrInvalidInput, got %v", m, err)
			}
		}
		if len(f.movies) != 0 {
			t.Error("invalid movies should never reach the server")
		}
	})

	t.Run("Update Needs Id", func(t *testing.T) {
		c, _ := newFakeMockAPI(t)
		if _, err := c.Update(ctx, NewCustomMovie("x", "https://v.example/x.mp4", CustomExtras{})); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("SearchCustom Folds Accents", func(t *testing.T) {
		c, _ := newFakeMockAPI(t)
		for _, title := range []string{"Amélie at Home", "Birthday Party", "AMELIE 2"} {
			if _, err := c.Create(ctx, NewCustomMovie(title, "https://v.example/v.mp4", CustomExtras{})); err != nil {
				t.Fatal(err)
			}
		}

		matches, err := c.SearchCustom(ctx, "amelie")
		if err != nil {
			t.Fatal(err)
		}
		if len(matches) != 2 {
			t.Errorf("expected 2 matches, got %+v", matches)
		}
	})

	t.Run("RegisterUser", func(t *testing.T) {
		c, _ := newFakeMockAPI(t)
		user := models.UserRef{FullName: "Ada Lovelace", Email: "ada@example.com"}

		created, err := c.RegisterUser(ctx, user)
		if err != nil {
			t.Fatalf("RegisterUser failed: %v", err)
		}
		if created.ID != "1700000000000" {
			t.Errorf("expected numeric id, got %q", created.ID)
		}

		_, err = c.RegisterUser(ctx, user)
		if !errors.Is(err, shared.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}
		if !strings.Contains(err.Error(), "Email already in use") {
			t.Errorf("expected server message, got %v", err)
		}
	})

	t.Run("RegisterUser Keeps String IDs", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			w.Write(body)
		}))
		defer server.Close()

		c := NewMockAPIClient(server.URL+"/api", server.Client(), log.New(&bytes.Buffer{}))
		user := models.UserRef{ID: "01a14517-7c1e-7000-8000-000000000001", FullName: "Ada Lovelace", Email: "ada@example.com"}

		created, err := c.RegisterUser(ctx, user)
		if err != nil {
			t.Fatalf("RegisterUser failed: %v", err)
		}
		if *created != user {
			t.Errorf("expected %+v, got %+v", user, *created)
		}
	})

	t.Run("Server Unreachable", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, fmt.Errorf("dial tcp: connection refused"))}
		c := NewMockAPIClient("http://localhost:1/api", client, nil)
		if _, err := c.List(ctx); !errors.Is(err, shared.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}
	})
}

func TestSearchWithCustom(t *testing.T) {
	ctx := context.Background()
	catalog := &tu.MockCatalog{Page: &models.CatalogPage{
		Page:         1,
		Results:      []models.CatalogItem{{ID: 194, Title: "Amélie", MediaType: models.MediaMovie}},
		TotalResults: 1,
	}}

	t.Run("Custom Matches First", func(t *testing.T) {
		custom, _ := newFakeMockAPI(t)
		custom.Create(ctx, NewCustomMovie("Amélie at Home", "https://v.example/v.mp4", CustomExtras{}))
		custom.Create(ctx, NewCustomMovie("Unrelated", "https://v.example/u.mp4", CustomExtras{}))

		page, err := SearchWithCustom(ctx, catalog, custom, "amelie", 1, log.New(&bytes.Buffer{}))
		if err != nil {
			t.Fatal(err)
		}
		if page.TotalResults != 2 {
			t.Errorf("expected total 2, got %d", page.TotalResults)
		}

		entries := page.Entries()
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if entries[0].Source != models.SourceCustom || entries[1].Source != models.SourceCatalog {
			t.Errorf("expected custom before catalog, got %+v", entries)
		}
	})

	t.Run("Custom Failure Falls Back", func(t *testing.T) {
		client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
		custom := NewMockAPIClient("http://localhost:1/api", client, nil)

		page, err := SearchWithCustom(ctx, catalog, custom, "amelie", 1, log.New(&bytes.Buffer{}))
		if err != nil {
			t.Fatal(err)
		}
		if len(page.Custom) != 0 || page.TotalResults != 1 {
			t.Errorf("expected catalog results only, got %+v", page)
		}
	})

	t.Run("Catalog Failure", func(t *testing.T) {
		failing := &tu.MockCatalog{Err: shared.ErrMissingCredentials}
		if _, err := SearchWithCustom(ctx, failing, nil, "x", 1, nil); !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
	})
}
