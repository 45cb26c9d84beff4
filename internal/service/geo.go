package service

import (
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oschwald/geoip2-golang"

	"phishguard/internal/utils"
)

// GeoInfo is where a scanned URL's server actually sits. A login page
// "for" a local bank hosted on another continent is worth surfacing.
type GeoInfo struct {
	Country     string `json:"country"`
	CountryCode string `json:"country_code"`
	City        string `json:"city,omitempty"`
}

type GeoService struct {
	Path string

	mu     sync.Mutex
	reader *geoip2.Reader
}

func NewGeoService(path string) *GeoService {
	return &GeoService{Path: path}
}

// EnsureDatabase downloads the mmdb file if it is missing and a source URL
// is configured. Called once at startup; lookup failures afterwards just
// leave the geo panel empty.
func (s *GeoService) EnsureDatabase(url string) error {
	if url == "" {
		return nil
	}
	if _, err := os.Stat(s.Path); err == nil {
		return nil
	}

	utils.Log.Info("downloading geoip database", utils.Field("path", s.Path))

	client := &http.Client{Timeout: 2 * time.Minute}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("geoip download: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("geoip download: HTTP %d", resp.StatusCode)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	_, err = io.Copy(out, resp.Body)
	return err
}

// Lookup geolocates one address. The reader is opened lazily so a missing
// database only disables the panel instead of failing startup.
func (s *GeoService) Lookup(addr string) (*GeoInfo, error) {
	ip := net.ParseIP(addr)
	if ip == nil {
		return nil, fmt.Errorf("not an ip: %s", addr)
	}

	s.mu.Lock()
	if s.reader == nil {
		r, err := geoip2.Open(s.Path)
		if err != nil {
			s.mu.Unlock()
			return nil, fmt.Errorf("geoip open: %w", err)
		}
		s.reader = r
	}
	reader := s.reader
	s.mu.Unlock()

	city, err := reader.City(ip)
	if err != nil {
		return nil, err
	}

	return &GeoInfo{
		Country:     city.Country.Names["en"],
		CountryCode: city.Country.IsoCode,
		City:        city.City.Names["en"],
	}, nil
}

// Close releases the mmdb reader.
func (s *GeoService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reader != nil {
		_ = s.reader.Close()
		s.reader = nil
	}
}
