package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"phishguard/internal/model"
)

func TestHTTPClassifier_Classify(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/classify" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		var req struct {
			URL   string `json:"url"`
			Model string `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("Bad request body: %v", err)
		}
		if req.URL != "http://example.com" || req.Model != "secondary" {
			t.Errorf("Unexpected request %+v", req)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintln(w, `{"is_phishing":true,"confidence":0.91,"features":{"hasHttps":false,"domainAge":12}}`)
	}))
	defer server.Close()

	c := NewHTTPClassifier(server.URL)
	res, err := c.Classify(context.Background(), "http://example.com", model.ModelSecondary)
	if err != nil {
		t.Fatalf("Classify failed: %v", err)
	}
	if !res.IsPhishing {
		t.Error("Expected phishing verdict")
	}
	if res.Confidence != 0.91 {
		t.Errorf("Confidence = %v, want 0.91", res.Confidence)
	}
	if len(res.Features) != 2 {
		t.Errorf("Expected 2 features, got %d", len(res.Features))
	}
}

func TestHTTPClassifier_Errors(t *testing.T) {
	t.Run("HTTP Error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer ts.Close()

		c := NewHTTPClassifier(ts.URL)
		_, err := c.Classify(context.Background(), "http://err.example.com", model.ModelPrimary)
		if err == nil {
			t.Fatal("Expected error on HTTP 500")
		}
	})

	t.Run("Bad JSON", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = fmt.Fprintln(w, `{not json`)
		}))
		defer ts.Close()

		c := NewHTTPClassifier(ts.URL)
		_, err := c.Classify(context.Background(), "http://bad.example.com", model.ModelPrimary)
		if err == nil {
			t.Fatal("Expected decode error")
		}
	})

	t.Run("Unreachable", func(t *testing.T) {
		c := NewHTTPClassifier("http://localhost:1")
		_, err := c.Classify(context.Background(), "http://example.com", model.ModelPrimary)
		if err == nil {
			t.Fatal("Expected connection error")
		}
	})
}

func TestHTTPClassifier_Health(t *testing.T) {
	t.Run("Healthy", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/health" {
				t.Errorf("Unexpected path %s", r.URL.Path)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer ts.Close()

		c := NewHTTPClassifier(ts.URL)
		if err := c.Health(context.Background()); err != nil {
			t.Errorf("Health failed: %v", err)
		}
	})

	t.Run("Unhealthy", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		c := NewHTTPClassifier(ts.URL)
		if err := c.Health(context.Background()); err == nil {
			t.Error("Expected error on HTTP 503")
		}
	})
}
