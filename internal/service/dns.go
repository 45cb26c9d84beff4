package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
)

// DNSRecords is the resolution context shown next to a verdict.
type DNSRecords struct {
	A    []string `json:"a,omitempty"`
	AAAA []string `json:"aaaa,omitempty"`
	MX   []string `json:"mx,omitempty"`
	NS   []string `json:"ns,omitempty"`
}

type DNSService struct {
	Resolver string
}

func NewDNSService(resolver string) *DNSService {
	if resolver == "" {
		resolver = "8.8.8.8:53"
	}
	return &DNSService{Resolver: resolver}
}

// Lookup resolves the record types the insight panel displays. Record
// types are queried concurrently; a failed type just comes back empty.
func (s *DNSService) Lookup(ctx context.Context, host string) (*DNSRecords, error) {
	rec := &DNSRecords{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	queries := []struct {
		qtype uint16
		dest  *[]string
	}{
		{dns.TypeA, &rec.A},
		{dns.TypeAAAA, &rec.AAAA},
		{dns.TypeMX, &rec.MX},
		{dns.TypeNS, &rec.NS},
	}

	for _, q := range queries {
		wg.Add(1)
		go func(qtype uint16, dest *[]string) {
			defer wg.Done()
			r, err := s.query(ctx, host, qtype)
			if err != nil || len(r) == 0 {
				return
			}
			mu.Lock()
			*dest = r
			mu.Unlock()
		}(q.qtype, q.dest)
	}

	wg.Wait()

	if len(rec.A) == 0 && len(rec.AAAA) == 0 && len(rec.MX) == 0 && len(rec.NS) == 0 {
		return nil, fmt.Errorf("no records for %s", host)
	}
	return rec, nil
}

func (s *DNSService) query(ctx context.Context, host string, qtype uint16) ([]string, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)

	c := new(dns.Client)
	c.Timeout = 5 * time.Second
	in, _, err := c.ExchangeContext(ctx, m, s.Resolver)
	if err != nil {
		return nil, err
	}

	var results []string
	for _, ans := range in.Answer {
		switch t := ans.(type) {
		case *dns.A:
			results = append(results, t.A.String())
		case *dns.AAAA:
			results = append(results, t.AAAA.String())
		case *dns.MX:
			results = append(results, fmt.Sprintf("%d %s", t.Preference, strings.TrimSuffix(t.Mx, ".")))
		case *dns.NS:
			results = append(results, strings.TrimSuffix(t.Ns, "."))
		}
	}
	return results, nil
}
