package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/services"
	"github.com/desertthunder/streamsavvy/internal/shared"
	"github.com/spf13/afero"
)

func newTestServer(t *testing.T, fs afero.Fs, delay int) (*Server, *httptest.Server) {
	t.Helper()
	if fs == nil {
		fs = afero.NewMemMapFs()
	}
	srv, err := New(shared.MockAPIConfig{DBPath: "/data/db.json", DelayMS: delay}, fs, log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)
	return srv, ts
}

func do(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func TestJSONDB(t *testing.T) {
	t.Run("creates file with collections", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if _, err := OpenJSONDB(fs, "/srv/db.json", "movies", "users"); err != nil {
			t.Fatal(err)
		}
		data, err := afero.ReadFile(fs, "/srv/db.json")
		if err != nil {
			t.Fatalf("db file not written: %v", err)
		}
		var doc map[string][]Record
		if err := json.Unmarshal(data, &doc); err != nil || doc["movies"] == nil || doc["users"] == nil {
			t.Errorf("unexpected file %s", data)
		}
	})

	t.Run("keeps existing records", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		afero.WriteFile(fs, "/db.json", []byte(`{"movies":[{"id":1700000000000,"title":"Kept"}]}`), 0644)

		db, err := OpenJSONDB(fs, "/db.json", "movies", "users")
		if err != nil {
			t.Fatal(err)
		}
		rec, err := db.Get("movies", "1700000000000")
		if err != nil || rec["title"] != "Kept" {
			t.Errorf("Get() = %v, %v", rec, err)
		}
		if !db.Has("users") {
			t.Error("missing collection should be added")
		}
	})

	t.Run("corrupt file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		afero.WriteFile(fs, "/db.json", []byte(`{"movies":`), 0644)
		if _, err := OpenJSONDB(fs, "/db.json", "movies"); !errors.Is(err, shared.ErrStorageCorrupt) {
			t.Errorf("expected ErrStorageCorrupt, got %v", err)
		}
	})

	t.Run("ids increase", func(t *testing.T) {
		db, _ := OpenJSONDB(afero.NewMemMapFs(), "/db.json", "movies")
		fixed := time.UnixMilli(1700000000000)
		db.now = func() time.Time { return fixed }

		a, _ := db.Insert("movies", Record{"title": "A"}, nil)
		b, _ := db.Insert("movies", Record{"title": "B"}, nil)
		if a.ID() != "1700000000000" || b.ID() != "1700000000001" {
			t.Errorf("expected increasing ids, got %s, %s", a.ID(), b.ID())
		}
		if _, err := db.Insert("movies", Record{"id": a["id"], "title": "dup"}, nil); !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected duplicate id to be rejected, got %v", err)
		}
	})

	t.Run("replace and merge", func(t *testing.T) {
		db, _ := OpenJSONDB(afero.NewMemMapFs(), "/db.json", "movies")
		rec, _ := db.Insert("movies", Record{"title": "A", "overview": "o"}, nil)

		merged, _ := db.Replace("movies", rec.ID(), Record{"title": "B", "id": 5}, true)
		if merged["overview"] != "o" || merged["title"] != "B" || merged.ID() != rec.ID() {
			t.Errorf("merge result %v", merged)
		}
		replaced, _ := db.Replace("movies", rec.ID(), Record{"title": "C"}, false)
		if _, ok := replaced["overview"]; ok || replaced.ID() != rec.ID() {
			t.Errorf("replace result %v", replaced)
		}
		if _, err := db.Replace("movies", "missing", Record{}, false); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("write failure rolls back", func(t *testing.T) {
		base := afero.NewMemMapFs()
		db, _ := OpenJSONDB(base, "/db.json", "movies")
		db.fs = afero.NewReadOnlyFs(base)

		if _, err := db.Insert("movies", Record{"title": "A"}, nil); err == nil {
			t.Fatal("expected write error")
		}
		if len(db.List("movies", nil)) != 0 {
			t.Error("failed insert should not stay in memory")
		}
	})
}

func TestServer(t *testing.T) {
	t.Run("movies CRUD", func(t *testing.T) {
		_, ts := newTestServer(t, nil, 0)

		resp, body := do(t, http.MethodPost, ts.URL+"/api/movies", `{"title":"Home Video","video_url":"https://v.example/a.mp4"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
		}
		var created Record
		json.Unmarshal(body, &created)
		id := created.ID()
		if id == "" {
			t.Fatal("expected assigned id")
		}

		resp, body = do(t, http.MethodGet, ts.URL+"/api/movies/"+id, "")
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Home Video") {
			t.Errorf("GET returned %d: %s", resp.StatusCode, body)
		}

		resp, body = do(t, http.MethodPatch, ts.URL+"/api/movies/"+id, `{"overview":"patched"}`)
		if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Home Video") {
			t.Errorf("PATCH should merge, got %d: %s", resp.StatusCode, body)
		}

		resp, body = do(t, http.MethodGet, ts.URL+"/api/movies?title=Home+Video", "")
		var list []Record
		json.Unmarshal(body, &list)
		if resp.StatusCode != http.StatusOK || len(list) != 1 {
			t.Errorf("filtered list returned %d: %s", resp.StatusCode, body)
		}

		resp, _ = do(t, http.MethodDelete, ts.URL+"/api/movies/"+id, "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("DELETE returned %d", resp.StatusCode)
		}
		resp, _ = do(t, http.MethodGet, ts.URL+"/api/movies/"+id, "")
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
		}
	})

	t.Run("bad body", func(t *testing.T) {
		_, ts := newTestServer(t, nil, 0)
		for _, body := range []string{"{", "null", "[1,2]"} {
			resp, _ := do(t, http.MethodPost, ts.URL+"/api/movies", body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("body %q: expected 400, got %d", body, resp.StatusCode)
			}
		}
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, ts := newTestServer(t, nil, 0)

		resp, body := do(t, http.MethodPost, ts.URL+"/api/users", `{"fullName":"Ada","email":"ada@example.com"}`)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}
		var user Record
		json.Unmarshal(body, &user)
		if user["hasCompletedPayment"] != false || user["createdAt"] == nil {
			t.Errorf("expected defaults, got %v", user)
		}

		resp, body = do(t, http.MethodPost, ts.URL+"/api/users", `{"fullName":"Ada","email":"ada@example.com"}`)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		var apiErr map[string]any
		json.Unmarshal(body, &apiErr)
		if apiErr["error"] != "Email already in use" || apiErr["status"] != float64(400) {
			t.Errorf("unexpected error body %s", body)
		}
	})

	t.Run("CORS", func(t *testing.T) {
		_, ts := newTestServer(t, nil, 0)

		resp, _ := do(t, http.MethodOptions, ts.URL+"/api/movies/1", "")
		if resp.StatusCode != http.StatusOK {
			t.Errorf("preflight expected 200, got %d", resp.StatusCode)
		}
		if resp.Header.Get("Access-Control-Allow-Origin") != "*" {
			t.Error("missing CORS header on preflight")
		}

		resp, _ = do(t, http.MethodGet, ts.URL+"/api/movies", "")
		if resp.Header.Get("Access-Control-Allow-Methods") == "" {
			t.Error("missing CORS header on GET")
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		_, ts := newTestServer(t, nil, 0)
		resp, _ := do(t, http.MethodDelete, ts.URL+"/api/movies", "")
		if resp.StatusCode != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", resp.StatusCode)
		}
	})

	t.Run("delay", func(t *testing.T) {
		_, ts := newTestServer(t, nil, 50)
		start := time.Now()
		do(t, http.MethodGet, ts.URL+"/api/movies", "")
		if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
			t.Errorf("expected at least 50ms delay, got %v", elapsed)
		}
	})

	t.Run("persists across restarts", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		_, ts := newTestServer(t, fs, 0)
		do(t, http.MethodPost, ts.URL+"/api/movies", `{"title":"Kept"}`)

		_, again := newTestServer(t, fs, 0)
		_, body := do(t, http.MethodGet, again.URL+"/api/movies", "")
		if !strings.Contains(string(body), "Kept") {
			t.Errorf("expected movie to survive restart, got %s", body)
		}
	})

	t.Run("recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(log.New(&bytes.Buffer{})))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
		if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Something went wrong!") {
			t.Errorf("unexpected response %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("logging", func(t *testing.T) {
		var buf bytes.Buffer
		router := NewBasicRouter()
		router.Use(Logging(log.New(&buf)))
		router.Handle(http.MethodGet, "/teapot", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/teapot", nil))
		if !strings.Contains(buf.String(), "418") || !strings.Contains(buf.String(), "/teapot") {
			t.Errorf("expected status and path in log, got %q", buf.String())
		}
	})
}

func TestServerWithClient(t *testing.T) {
	_, ts := newTestServer(t, nil, 0)
	ctx := context.Background()
	client := services.NewMockAPIClient(ts.URL+"/api", ts.Client(), log.New(&bytes.Buffer{}))

	created, err := client.Create(ctx, services.NewCustomMovie("Amélie at Home", "https://v.example/a.mp4", services.CustomExtras{}))
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := client.Get(ctx, created.ID)
	if err != nil || got.Overview != "Custom movie: Amélie at Home" {
		t.Fatalf("Get() = %+v, %v", got, err)
	}

	matches, err := client.SearchCustom(ctx, "amelie")
	if err != nil || len(matches) != 1 {
		t.Errorf("SearchCustom() = %v, %v", matches, err)
	}

	if err := client.Delete(ctx, created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := client.Get(ctx, created.ID); !errors.Is(err, shared.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	user := models.UserRef{FullName: "Ada Lovelace", Email: "ada@example.com"}
	if _, err := client.RegisterUser(ctx, user); err != nil {
		t.Fatal(err)
	}
	if _, err := client.RegisterUser(ctx, user); !errors.Is(err, shared.ErrDuplicateEmail) {
		t.Errorf("expected ErrDuplicateEmail, got %v", err)
	}
}

func TestListenAndServe(t *testing.T) {
	srv, err := New(shared.MockAPIConfig{Host: "127.0.0.1", Port: 0, DBPath: "/db.json"}, afero.NewMemMapFs(), log.New(&bytes.Buffer{}))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	ready := make(chan string, 1)
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe(ctx, ready) }()

	var addr string
	select {
	case addr = <-ready:
	case err := <-errs:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not start")
	}

	resp, _ := do(t, http.MethodGet, "http://"+addr+"/api/movies", "")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errs:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatal("server did not stop")
	}
}
