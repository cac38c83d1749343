package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"reelsync/internal/identity"
	"reelsync/internal/logging"
	"reelsync/internal/services"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("test-key", server.URL, "en-US", logging.NewNop())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := New("  ", "https://example.invalid", "", logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestAuthenticationFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/authentication/token/new", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("api_key") != "test-key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "request_token": "tok-1"})
	})
	mux.HandleFunc("/authentication/session/new", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("request_token") != "tok-1" {
			http.Error(w, "bad token", http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"success": true, "session_id": "sess-1"})
	})
	client := newTestClient(t, mux)

	token, err := client.NewRequestToken(context.Background())
	if err != nil {
		t.Fatalf("NewRequestToken failed: %v", err)
	}
	if token != "tok-1" {
		t.Fatalf("unexpected token: %q", token)
	}
	if got := AuthorizeURL(token); !strings.HasSuffix(got, "/authenticate/tok-1") {
		t.Fatalf("unexpected authorize url: %q", got)
	}

	session, err := client.NewSession(context.Background(), token)
	if err != nil {
		t.Fatalf("NewSession failed: %v", err)
	}
	if session != "sess-1" || client.Session() != "sess-1" {
		t.Fatalf("session not installed: %q %q", session, client.Session())
	}
}

func TestAccountRequiresSession(t *testing.T) {
	client := newTestClient(t, http.NotFoundHandler())

	if _, err := client.Account(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRatedPagePagination(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/account/42/rated/movies", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session_id") != "sess-1" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		page := r.URL.Query().Get("page")
		switch page {
		case "1":
			json.NewEncoder(w).Encode(RatedResponse{
				Page:       1,
				TotalPages: 2,
				Results:    []RatedItem{{ID: 603, Rating: 9}, {ID: 550, Rating: 8}},
			})
		case "2":
			json.NewEncoder(w).Encode(RatedResponse{
				Page:       2,
				TotalPages: 2,
				Results:    []RatedItem{{ID: 680, Rating: 10}},
			})
		default:
			http.Error(w, "no such page", http.StatusNotFound)
		}
	})
	client := newTestClient(t, mux)
	client.SetSession("sess-1")

	items, total, err := client.RatedPage(context.Background(), 42, identity.KindMovie, 1)
	if err != nil {
		t.Fatalf("RatedPage failed: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("unexpected first page: total=%d items=%d", total, len(items))
	}

	items, total, err = client.RatedPage(context.Background(), 42, identity.KindMovie, 2)
	if err != nil {
		t.Fatalf("RatedPage page 2 failed: %v", err)
	}
	if total != 2 || len(items) != 1 || items[0].ID != 680 {
		t.Fatalf("unexpected second page: total=%d items=%v", total, items)
	}
}

func TestRatedPageShowsEndpoint(t *testing.T) {
	var path string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		json.NewEncoder(w).Encode(RatedResponse{Page: 1, TotalPages: 1})
	}))
	client.SetSession("sess-1")

	if _, _, err := client.RatedPage(context.Background(), 7, identity.KindShow, 1); err != nil {
		t.Fatalf("RatedPage failed: %v", err)
	}
	if path != "/account/7/rated/tv" {
		t.Fatalf("unexpected path: %q", path)
	}
}

func TestRatePostsValue(t *testing.T) {
	var gotPath string
	var gotBody map[string]float64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"status_code":1,"status_message":"Success."}`)
	}))
	client.SetSession("sess-1")

	if err := client.Rate(context.Background(), identity.KindMovie, "603", 9); err != nil {
		t.Fatalf("Rate failed: %v", err)
	}
	if gotPath != "/movie/603/rating" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotBody["value"] != 9 {
		t.Fatalf("unexpected body: %v", gotBody)
	}
}

func TestRateSurfacesStatusMessage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"status_code":3,"status_message":"Authentication failed."}`)
	}))
	client.SetSession("sess-1")

	err := client.Rate(context.Background(), identity.KindShow, "1396", 8)
	if err == nil {
		t.Fatal("expected error for rejected rating")
	}
	if !strings.Contains(err.Error(), "Authentication failed") {
		t.Fatalf("expected provider message in error, got %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmdb_session.json")

	if got := LoadSession(path); got != "" {
		t.Fatalf("missing file must load empty, got %q", got)
	}
	if err := SaveSession(path, "sess-9"); err != nil {
		t.Fatalf("SaveSession failed: %v", err)
	}
	if got := LoadSession(path); got != "sess-9" {
		t.Fatalf("unexpected session: %q", got)
	}
}
