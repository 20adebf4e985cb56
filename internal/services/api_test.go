package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/desertthunder/streamsavvy/internal/shared"
	tu "github.com/desertthunder/streamsavvy/internal/testing"
)

func TestAPIService(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Custom BaseURL and Client", func(t *testing.T) {
			customClient := &http.Client{}
			srv := NewAPIService("http://example.com", customClient)

			if srv.baseURL != "http://example.com" {
				t.Errorf("expected baseURL 'http://example.com', got %s", srv.baseURL)
			}
			if srv.httpClient != customClient {
				t.Error("expected custom client to be used")
			}
		})

		t.Run("With Empty BaseURL", func(t *testing.T) {
			srv := NewAPIService("", nil)

			if srv.baseURL != "http://localhost:3001/api" {
				t.Errorf("expected default baseURL 'http://localhost:3001/api', got %s", srv.baseURL)
			}
		})

		t.Run("With Nil Client", func(t *testing.T) {
			srv := NewAPIService("http://example.com", nil)

			if srv.httpClient != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})
	})

	t.Run("Requests", func(t *testing.T) {
		tests := []struct {
			method string
			path   string
			body   []byte
			call   func(*APIService, context.Context, string, []byte) (*APIResponse, error)
		}{
			{
				method: http.MethodGet, path: "/movies",
				call: func(s *APIService, ctx context.Context, p string, _ []byte) (*APIResponse, error) { return s.Get(ctx, p) },
			},
			{
				method: http.MethodPost, path: "/movies", body: []byte(`{"title":"Home Video"}`),
				call: func(s *APIService, ctx context.Context, p string, b []byte) (*APIResponse, error) { return s.Post(ctx, p, b) },
			},
			{
				method: http.MethodPut, path: "/movies/1", body: []byte(`{"id":1,"title":"Edited"}`),
				call: func(s *APIService, ctx context.Context, p string, b []byte) (*APIResponse, error) { return s.Put(ctx, p, b) },
			},
			{
				method: http.MethodDelete, path: "/movies/1",
				call: func(s *APIService, ctx context.Context, p string, _ []byte) (*APIResponse, error) { return s.Delete(ctx, p) },
			},
		}

		for _, tt := range tests {
			t.Run(tt.method, func(t *testing.T) {
				t.Run("Sends Method, Path And Body", func(t *testing.T) {
					server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						if r.Method != tt.method {
							t.Errorf("expected %s, got %s", tt.method, r.Method)
						}
						if r.URL.Path != "/api"+tt.path {
							t.Errorf("expected path /api%s, got %s", tt.path, r.URL.Path)
						}
						if r.Header.Get("Accept") != "application/json" {
							t.Errorf("expected JSON Accept header, got %q", r.Header.Get("Accept"))
						}

						body, _ := io.ReadAll(r.Body)
						if tt.body == nil {
							if len(body) != 0 || r.Header.Get("Content-Type") != "" {
								t.Errorf("expected no body, got %q (%s)", body, r.Header.Get("Content-Type"))
							}
						} else if string(body) != string(tt.body) || r.Header.Get("Content-Type") != "application/json" {
							t.Errorf("expected JSON body %s, got %s (%s)", tt.body, body, r.Header.Get("Content-Type"))
						}

						w.Header().Set("X-Total-Count", "1")
						w.Header().Set("Content-Type", "application/json")
						json.NewEncoder(w).Encode(map[string]any{"id": 1, "title": "Home Video"})
					}))
					defer server.Close()

					srv := NewAPIService(server.URL+"/api", nil)
					resp, err := tt.call(srv, context.Background(), tt.path, tt.body)
					if err != nil {
						t.Fatalf("expected no error, got %v", err)
					}
					if !resp.OK() || !resp.IsJSON {
						t.Errorf("expected a 2xx JSON response, got %d (json=%t)", resp.StatusCode, resp.IsJSON)
					}
					if resp.Headers.Get("X-Total-Count") != "1" {
						t.Error("expected response headers to be preserved")
					}

					var movie struct {
						ID    int64  `json:"id"`
						Title string `json:"title"`
					}
					if err := resp.Decode(&movie); err != nil || movie.ID != 1 {
						t.Errorf("unexpected decode result %+v, %v", movie, err)
					}
				})

				t.Run("Non-JSON Body Is Kept Raw", func(t *testing.T) {
					server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.Header().Set("Content-Type", "text/plain")
						w.Write([]byte("plain text response"))
					}))
					defer server.Close()

					resp, err := tt.call(NewAPIService(server.URL, nil), context.Background(), tt.path, tt.body)
					if err != nil {
						t.Fatalf("expected no error, got %v", err)
					}
					if resp.IsJSON || resp.JSONData != nil {
						t.Error("expected response to not be JSON")
					}
					if string(resp.Body) != "plain text response" {
						t.Errorf("expected raw body, got %s", resp.Body)
					}
				})

				t.Run("Invalid Path Fails Request Creation", func(t *testing.T) {
					_, err := tt.call(NewAPIService("http://example.com", nil), context.Background(), "/movies\x00bad", tt.body)
					if err == nil || !strings.Contains(err.Error(), "failed to create request") {
						t.Errorf("expected request creation error, got %v", err)
					}
				})

				t.Run("Transport Failure Is A Network Failure", func(t *testing.T) {
					client := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}
					_, err := tt.call(NewAPIService("http://example.com", client), context.Background(), tt.path, tt.body)
					if !errors.Is(err, shared.ErrNetworkFailure) {
						t.Errorf("expected ErrNetworkFailure, got %v", err)
					}
				})

				t.Run("Unreadable Body Is A Network Failure", func(t *testing.T) {
					client := &http.Client{Transport: tu.NewMockRoundTripper(&http.Response{
						StatusCode: http.StatusOK,
						Body:       &tu.FCloser{},
						Header:     make(http.Header),
					}, nil)}
					_, err := tt.call(NewAPIService("http://example.com", client), context.Background(), tt.path, tt.body)
					if !errors.Is(err, shared.ErrNetworkFailure) || !strings.Contains(err.Error(), "failed to read response") {
						t.Errorf("expected read failure, got %v", err)
					}
				})

				t.Run("Canceled Context", func(t *testing.T) {
					server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
						w.WriteHeader(http.StatusOK)
					}))
					defer server.Close()

					ctx, cancel := context.WithCancel(context.Background())
					cancel()
					if _, err := tt.call(NewAPIService(server.URL, nil), ctx, tt.path, tt.body); err == nil {
						t.Error("expected error for canceled context")
					}
				})
			})
		}
	})

	t.Run("Check", func(t *testing.T) {
		tests := []struct {
			name   string
			status int
			body   string
			want   error
			msg    string
		}{
			{name: "ok", status: http.StatusOK},
			{name: "created", status: http.StatusCreated},
			{name: "not found", status: http.StatusNotFound, want: shared.ErrNotFound, msg: "Not Found"},
			{name: "unauthorized", status: http.StatusUnauthorized, body: `{"status_message":"Invalid API key"}`, want: shared.ErrMissingCredentials, msg: "Invalid API key"},
			{name: "bad request", status: http.StatusBadRequest, body: `{"error":"Email already in use","status":400}`, want: shared.ErrInvalidInput, msg: "Email already in use"},
			{name: "server error", status: http.StatusInternalServerError, want: shared.ErrNetworkFailure, msg: "status 500"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				resp := &APIResponse{StatusCode: tt.status, Body: []byte(tt.body)}
				if tt.body != "" {
					var data any
					json.Unmarshal([]byte(tt.body), &data)
					resp.IsJSON, resp.JSONData = true, data
				}

				err := resp.Check()
				if tt.want == nil {
					if err != nil {
						t.Errorf("expected no error, got %v", err)
					}
					return
				}
				if !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
				if !strings.Contains(err.Error(), tt.msg) {
					t.Errorf("expected message containing %q, got %v", tt.msg, err)
				}
			})
		}
	})

	t.Run("Decode", func(t *testing.T) {
		resp := &APIResponse{StatusCode: http.StatusOK, Body: []byte("not json")}
		var dst map[string]any
		if err := resp.Decode(&dst); !errors.Is(err, shared.ErrNetworkFailure) {
			t.Errorf("expected ErrNetworkFailure, got %v", err)
		}
	})

	t.Run("APIResponse", func(t *testing.T) {
		t.Run("JSON Detection", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte(`{"valid": "json"}`))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if !resp.IsJSON {
				t.Error("expected valid JSON to be detected")
			}

			jsonMap, ok := resp.JSONData.(map[string]any)
			if !ok {
				t.Error("expected JSONData to be map[string]interface{}")
			}
			if jsonMap["valid"] != "json" {
				t.Errorf("expected JSONData['valid'] to be 'json', got %v", jsonMap["valid"])
			}
		})

		t.Run("Invalid JSON Detection", func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("not json"))
			}))
			defer server.Close()

			srv := NewAPIService(server.URL, nil)
			resp, err := srv.Get(context.Background(), "/test")

			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.IsJSON {
				t.Error("expected invalid JSON to not be detected as JSON")
			}
			if resp.JSONData != nil {
				t.Error("expected JSONData to be nil for invalid JSON")
			}
		})
	})
}
