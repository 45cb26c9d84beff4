package service

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureDatabase_Downloads(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		_, _ = w.Write([]byte("mmdb-bytes"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "geo", "GeoLite2-City.mmdb")
	svc := NewGeoService(path)

	if err := svc.EnsureDatabase(srv.URL); err != nil {
		t.Fatalf("EnsureDatabase failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Database file not written: %v", err)
	}
	if string(data) != "mmdb-bytes" {
		t.Errorf("Unexpected file content: %s", data)
	}

	// A present file skips the download entirely.
	if err := svc.EnsureDatabase(srv.URL); err != nil {
		t.Fatalf("Second EnsureDatabase failed: %v", err)
	}
	if hits != 1 {
		t.Errorf("Expected exactly one download, got %d", hits)
	}
}

func TestEnsureDatabase_NoURLConfigured(t *testing.T) {
	svc := NewGeoService(filepath.Join(t.TempDir(), "missing.mmdb"))
	if err := svc.EnsureDatabase(""); err != nil {
		t.Errorf("Empty URL should be a no-op, got %v", err)
	}
}

func TestEnsureDatabase_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	svc := NewGeoService(filepath.Join(t.TempDir(), "geo.mmdb"))
	if err := svc.EnsureDatabase(srv.URL); err == nil {
		t.Error("Expected an error for a failed download")
	}
}

func TestGeoLookup_BadInput(t *testing.T) {
	svc := NewGeoService(filepath.Join(t.TempDir(), "geo.mmdb"))
	defer svc.Close()

	if _, err := svc.Lookup("not-an-ip"); err == nil {
		t.Error("Expected an error for a non-IP address")
	}
	if _, err := svc.Lookup("93.184.216.34"); err == nil {
		t.Error("Expected an error when the database is missing")
	}
}
