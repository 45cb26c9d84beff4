package service

import (
	"context"
	"net/url"
	"sync"

	"phishguard/internal/utils"
)

// DomainInsight is the optional context shown alongside a verdict. It is
// display-only: nothing here feeds classification, and every field degrades
// to absent on failure.
type DomainInsight struct {
	Host         string            `json:"host"`
	DNS          *DNSRecords       `json:"dns,omitempty"`
	Registration *RegistrationInfo `json:"registration,omitempty"`
	Geo          *GeoInfo          `json:"geo,omitempty"`
}

// RegistrationLookup matches LookupRegistration; swappable in tests.
type RegistrationLookup func(domain string) (*RegistrationInfo, error)

// DNSLookup is implemented by DNSService; swappable in tests.
type DNSLookup interface {
	Lookup(ctx context.Context, host string) (*DNSRecords, error)
}

// InsightService gathers DNS, registration and geolocation context for a
// scanned URL's host. Each source is feature-flagged and fetched
// concurrently; the caller gets whatever resolved in time.
type InsightService struct {
	DNS         DNSLookup
	Geo         *GeoService
	Whois       RegistrationLookup
	EnableDNS   bool
	EnableWhois bool
	EnableGeo   bool
}

func NewInsightService(dnsSvc *DNSService, geo *GeoService, enableDNS, enableWhois, enableGeo bool) *InsightService {
	return &InsightService{
		DNS:         dnsSvc,
		Geo:         geo,
		Whois:       LookupRegistration,
		EnableDNS:   enableDNS,
		EnableWhois: enableWhois,
		EnableGeo:   enableGeo,
	}
}

// Lookup collects insight for a normalized URL. Always returns a value;
// fields are nil where a source is disabled or failed.
func (s *InsightService) Lookup(ctx context.Context, normalizedURL string) *DomainInsight {
	insight := &DomainInsight{}

	u, err := url.Parse(normalizedURL)
	if err != nil || u.Hostname() == "" {
		return insight
	}
	host := u.Hostname()
	insight.Host = host

	var mu sync.Mutex
	var wg sync.WaitGroup

	if s.EnableDNS && s.DNS != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec, err := s.DNS.Lookup(ctx, host)
			if err != nil {
				utils.Log.Debug("insight dns lookup failed", utils.Field("host", host), utils.Field("error", err.Error()))
				return
			}
			mu.Lock()
			insight.DNS = rec
			mu.Unlock()

			// Geolocate the first resolved address.
			if s.EnableGeo && s.Geo != nil && len(rec.A) > 0 {
				if geo, geoErr := s.Geo.Lookup(rec.A[0]); geoErr == nil {
					mu.Lock()
					insight.Geo = geo
					mu.Unlock()
				}
			}
		}()
	}

	if s.EnableWhois && s.Whois != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			info, err := s.Whois(host)
			if err != nil {
				utils.Log.Debug("insight whois lookup failed", utils.Field("host", host), utils.Field("error", err.Error()))
				return
			}
			mu.Lock()
			insight.Registration = info
			mu.Unlock()
		}()
	}

	wg.Wait()
	return insight
}
