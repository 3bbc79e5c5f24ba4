package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("failed to encode response: %v", err)
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/login" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Username != "alice" || req.Password != "secret" {
			writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid username or password"})
			return
		}
		writeJSON(t, w, http.StatusOK, map[string]string{"token": "tok-abc"})
	}))
	defer server.Close()

	client := New(server.URL)

	token, err := client.Login(context.Background(), "alice", "secret")
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if token != "tok-abc" {
		t.Errorf("token = %q, want %q", token, "tok-abc")
	}
}

func TestLoginRejected(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnauthorized, map[string]string{"message": "invalid username or password"})
	}))
	defer server.Close()

	_, err := New(server.URL).Login(context.Background(), "alice", "wrong")
	if !IsAuthFailed(err) {
		t.Fatalf("error = %v, want auth failure", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %T, want *APIError", err)
	}
	if apiErr.Message != "invalid username or password" {
		t.Errorf("Message = %q, want the server's message", apiErr.Message)
	}
}

func TestElevationStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/isadmin" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]bool{"isAdmin": true})
	}))
	defer server.Close()

	elevated, err := New(server.URL).ElevationStatus(context.Background())
	if err != nil {
		t.Fatalf("ElevationStatus failed: %v", err)
	}
	if !elevated {
		t.Error("elevated = false, want true")
	}
}

func TestListTeas(t *testing.T) {
	t.Parallel()

	avg := 4.5
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusOK, []Tea{
			{ID: "t1", Name: "Sencha", Origin: "Japan", CreatedBy: "alice", AverageRating: &avg},
			{ID: "t2", Name: "Assam", Origin: "India", CreatedBy: "bob"},
		})
	}))
	defer server.Close()

	teas, err := New(server.URL).ListTeas(context.Background())
	if err != nil {
		t.Fatalf("ListTeas failed: %v", err)
	}
	if len(teas) != 2 {
		t.Fatalf("got %d teas, want 2", len(teas))
	}
	if teas[0].AverageRating == nil || *teas[0].AverageRating != 4.5 {
		t.Errorf("AverageRating = %v, want 4.5", teas[0].AverageRating)
	}
	if teas[1].AverageRating != nil {
		t.Error("an unrated tea must have a nil average")
	}
}

func TestGetTeaNotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]string{"error": "tea not found"})
	}))
	defer server.Close()

	_, err := New(server.URL).GetTea(context.Background(), "missing")
	if !IsNotFound(err) {
		t.Fatalf("error = %v, want not-found", err)
	}
}

func TestCreateTea(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/teas" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var input TeaInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		writeJSON(t, w, http.StatusCreated, Tea{
			ID:        "t9",
			Name:      input.Name,
			Origin:    input.Origin,
			CreatedBy: "alice",
		})
	}))
	defer server.Close()

	tea, err := New(server.URL).CreateTea(context.Background(), TeaInput{Name: "Gyokuro", Origin: "Japan"})
	if err != nil {
		t.Fatalf("CreateTea failed: %v", err)
	}
	if tea.ID != "t9" || tea.Name != "Gyokuro" {
		t.Errorf("tea = %+v", tea)
	}
}

func TestUpdateTeaForbidden(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusForbidden, map[string]string{"error": "not your tea"})
	}))
	defer server.Close()

	_, err := New(server.URL).UpdateTea(context.Background(), "t1", TeaInput{Name: "X"})
	if !IsForbidden(err) {
		t.Fatalf("error = %v, want forbidden", err)
	}
	// Forbidden and auth-failed are distinct verdicts.
	if IsAuthFailed(err) {
		t.Error("a 403 must not read as an authentication failure")
	}
}

func TestDeleteTea(t *testing.T) {
	t.Parallel()

	var gotMethod, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := New(server.URL).DeleteTea(context.Background(), "t1"); err != nil {
		t.Fatalf("DeleteTea failed: %v", err)
	}
	if gotMethod != http.MethodDelete || gotPath != "/api/teas/t1" {
		t.Errorf("request = %s %s, want DELETE /api/teas/t1", gotMethod, gotPath)
	}
}

func TestRatingStatus(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/teas/t1/israted" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, http.StatusOK, map[string]int{"rating": 4})
	}))
	defer server.Close()

	status, err := New(server.URL).RatingStatus(context.Background(), "t1")
	if err != nil {
		t.Fatalf("RatingStatus failed: %v", err)
	}
	if !status.HasRated() || status.Rating != 4 {
		t.Errorf("status = %+v, want rated 4", status)
	}
}

func TestSubmitRating(t *testing.T) {
	t.Parallel()

	var gotScore int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/teas/t1/rate" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Score int `json:"score"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		gotScore = req.Score
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := New(server.URL).SubmitRating(context.Background(), "t1", 5); err != nil {
		t.Fatalf("SubmitRating failed: %v", err)
	}
	if gotScore != 5 {
		t.Errorf("score = %d, want 5", gotScore)
	}
}

func TestUnreachableServer(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	_, err := New(server.URL).ListTeas(context.Background())
	if !IsUnavailable(err) {
		t.Fatalf("error = %v, want unavailable", err)
	}

	var connErr *ConnectionError
	if !errors.As(err, &connErr) {
		t.Fatalf("error = %T, want *ConnectionError", err)
	}
	if connErr.Unwrap() == nil {
		t.Error("ConnectionError should wrap the transport error")
	}
}

func TestErrorBodyShapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{"MessageField", `{"message":"bad credentials"}`, "bad credentials"},
		{"ErrorField", `{"error":"tea not found"}`, "tea not found"},
		{"Unparseable", `<html>oops</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := New(server.URL).ListTeas(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error = %T, want *APIError", err)
			}
			if apiErr.Message != tt.want {
				t.Errorf("Message = %q, want %q", apiErr.Message, tt.want)
			}
		})
	}
}

func TestBaseURLTrailingSlash(t *testing.T) {
	t.Parallel()

	client := New("http://example.com/")
	if client.BaseURL() != "http://example.com" {
		t.Errorf("BaseURL = %q, want trailing slash trimmed", client.BaseURL())
	}
}
