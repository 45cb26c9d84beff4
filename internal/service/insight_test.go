package service

import (
	"context"
	"errors"
	"testing"
	"time"
)

type stubDNS struct {
	records *DNSRecords
	err     error
	calls   int
}

func (s *stubDNS) Lookup(ctx context.Context, host string) (*DNSRecords, error) {
	s.calls++
	return s.records, s.err
}

func TestInsightLookup_CollectsEnabledSources(t *testing.T) {
	dns := &stubDNS{records: &DNSRecords{A: []string{"93.184.216.34"}}}
	svc := &InsightService{
		DNS:       dns,
		EnableDNS: true,
		Whois: func(domain string) (*RegistrationInfo, error) {
			if domain != "example.com" {
				t.Errorf("Expected whois for example.com, got %s", domain)
			}
			return &RegistrationInfo{Registrar: "Example Registrar"}, nil
		},
		EnableWhois: true,
	}

	insight := svc.Lookup(context.Background(), "http://example.com/login")
	if insight.Host != "example.com" {
		t.Errorf("Expected host example.com, got %s", insight.Host)
	}
	if insight.DNS == nil || len(insight.DNS.A) != 1 {
		t.Errorf("Expected DNS records, got %+v", insight.DNS)
	}
	if insight.Registration == nil || insight.Registration.Registrar != "Example Registrar" {
		t.Errorf("Expected registration info, got %+v", insight.Registration)
	}
	if dns.calls != 1 {
		t.Errorf("Expected one DNS lookup, got %d", dns.calls)
	}
}

func TestInsightLookup_DisabledSourcesUntouched(t *testing.T) {
	dns := &stubDNS{records: &DNSRecords{A: []string{"93.184.216.34"}}}
	svc := &InsightService{
		DNS: dns,
		Whois: func(domain string) (*RegistrationInfo, error) {
			t.Error("Whois should not be called when disabled")
			return nil, nil
		},
	}

	insight := svc.Lookup(context.Background(), "http://example.com")
	if dns.calls != 0 {
		t.Errorf("DNS should not be called when disabled, got %d calls", dns.calls)
	}
	if insight.DNS != nil || insight.Registration != nil || insight.Geo != nil {
		t.Errorf("Expected empty insight with all sources disabled, got %+v", insight)
	}
}

func TestInsightLookup_FailuresAreBestEffort(t *testing.T) {
	dns := &stubDNS{err: errors.New("servfail")}
	svc := &InsightService{
		DNS:       dns,
		EnableDNS: true,
		Whois: func(domain string) (*RegistrationInfo, error) {
			return nil, errors.New("whois timeout")
		},
		EnableWhois: true,
	}

	done := make(chan *DomainInsight, 1)
	go func() { done <- svc.Lookup(context.Background(), "http://example.com") }()

	select {
	case insight := <-done:
		if insight.Host != "example.com" {
			t.Errorf("Expected host set even when lookups fail, got %q", insight.Host)
		}
		if insight.DNS != nil || insight.Registration != nil {
			t.Errorf("Failed lookups must leave fields nil, got %+v", insight)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Lookup did not return after source failures")
	}
}

func TestInsightLookup_UnparsableURL(t *testing.T) {
	svc := &InsightService{
		DNS:       &stubDNS{},
		EnableDNS: true,
	}
	insight := svc.Lookup(context.Background(), "http://")
	if insight == nil {
		t.Fatal("Expected non-nil insight for unparsable URL")
	}
	if insight.Host != "" {
		t.Errorf("Expected empty host, got %q", insight.Host)
	}
}
