// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/streamsavvy/internal/models"
	"github.com/desertthunder/streamsavvy/internal/shared"
)

// MockCatalog is a test double for services.CatalogService.
//
// Details are served from the Titles map keyed by id; lists return Page. Err, when set, is returned by
// every call.
type MockCatalog struct {
	mu      sync.Mutex
	Titles  map[int64]*models.CatalogDetails
	Page    *models.CatalogPage
	Genre   []models.Genre
	Err     error
	calls   int
}

func (m *MockCatalog) record() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Err
}

// Calls returns the number of requests made so far.
func (m *MockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockCatalog) page() *models.CatalogPage {
	if m.Page == nil {
		return &models.CatalogPage{Page: 1}
	}
	p := *m.Page
	return &p
}

func (m *MockCatalog) Details(ctx context.Context, mediaType models.MediaType, id int64) (*models.CatalogDetails, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	d, ok := m.Titles[id]
	if !ok {
		return nil, fmt.Errorf("%w: catalog id %d", shared.ErrNotFound, id)
	}
	return d, nil
}

func (m *MockCatalog) Search(ctx context.Context, mediaType models.MediaType, query string, page int) (*models.CatalogPage, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	return m.page(), nil
}

func (m *MockCatalog) Trending(ctx context.Context, mediaType models.MediaType) (*models.CatalogPage, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	return m.page(), nil
}

func (m *MockCatalog) Popular(ctx context.Context, mediaType models.MediaType, page int) (*models.CatalogPage, error) {
	return m.Browse(ctx, mediaType, "popular", page)
}

func (m *MockCatalog) Browse(ctx context.Context, mediaType models.MediaType, list string, page int) (*models.CatalogPage, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	return m.page(), nil
}

func (m *MockCatalog) Genres(ctx context.Context, mediaType models.MediaType) ([]models.Genre, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	return m.Genre, nil
}

func (m *MockCatalog) ByGenre(ctx context.Context, mediaType models.MediaType, genreID int, page int) (*models.CatalogPage, error) {
	if err := m.record(); err != nil {
		return nil, err
	}
	return m.page(), nil
}

func (m *MockCatalog) ImageURL(path, size string) string {
	if path == "" {
		return ""
	}
	return "https://images.test/" + size + path
}

func (m *MockCatalog) Name() string { return "mock" }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
