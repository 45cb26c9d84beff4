package service

import (
	"fmt"
	"strings"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"
)

// RegistrationInfo carries the registration facts relevant to phishing
// triage: young or about-to-expire domains are a common tell.
type RegistrationInfo struct {
	Registrar string `json:"registrar,omitempty"`
	Created   string `json:"created,omitempty"`
	Expiry    string `json:"expiry,omitempty"`
}

// WhoisFunc is swappable for tests; live lookups hit registry servers.
var WhoisFunc = whois.Whois

// LookupRegistration fetches and parses WHOIS data for a domain. Registry
// output pointing at a registrar server is followed once, since registrar
// records usually carry the creation date the registry output omits.
func LookupRegistration(domain string) (*RegistrationInfo, error) {
	raw, err := WhoisFunc(domain)
	if err != nil {
		return nil, fmt.Errorf("whois lookup: %w", err)
	}

	if server := registrarServer(raw); server != "" {
		if refRaw, refErr := WhoisFunc(domain, server); refErr == nil && len(refRaw) > len(raw)/2 {
			raw = refRaw
		}
	}

	result, err := whoisparser.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("whois parse: %w", err)
	}

	info := &RegistrationInfo{}
	if result.Registrar != nil {
		info.Registrar = result.Registrar.Name
	}
	if result.Domain != nil {
		info.Created = result.Domain.CreatedDate
		info.Expiry = result.Domain.ExpirationDate
	}
	return info, nil
}

func registrarServer(raw string) string {
	for _, line := range strings.Split(raw, "\n") {
		if !strings.Contains(line, "Registrar WHOIS Server:") {
			continue
		}
		parts := strings.SplitN(line, ":", 2)
		if len(parts) == 2 {
			return strings.TrimSpace(parts[1])
		}
	}
	return ""
}
