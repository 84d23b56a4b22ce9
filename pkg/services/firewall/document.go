package firewall

import (
	"encoding/json"
	"fmt"
	"net"
	"os"

	"github.com/de-tools/sql-atlas/pkg/models/domain"
)

// documentRule is the on-disk shape of a desired rule. Field names and casing
// are a compatibility contract with existing documents and must not change.
type documentRule struct {
	Name           string `json:"Name"`
	StartIPAddress string `json:"StartIPAddress"`
	EndIPAddress   string `json:"EndIPAddress"`
}

// LoadDocument reads and validates a desired-state document: a JSON array of
// named IPv4 ranges. Any read, parse, or validation failure is reported as
// ConfigParseError before a single firewall call is made.
func LoadDocument(path string) ([]domain.FirewallRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &domain.ConfigParseError{Path: path, Err: err}
	}

	var entries []documentRule
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &domain.ConfigParseError{Path: path, Err: err}
	}

	rules := make([]domain.FirewallRule, 0, len(entries))
	for _, entry := range entries {
		rules = append(rules, domain.FirewallRule{
			Name:           entry.Name,
			StartIPAddress: entry.StartIPAddress,
			EndIPAddress:   entry.EndIPAddress,
		})
	}

	if err := ValidateRules(rules); err != nil {
		return nil, &domain.ConfigParseError{Path: path, Err: err}
	}
	return rules, nil
}

// ValidateRules checks a desired rule set regardless of where it came from:
// every rule named, names unique, both addresses valid IPv4.
func ValidateRules(rules []domain.FirewallRule) error {
	seen := make(map[string]struct{}, len(rules))
	for i, rule := range rules {
		if rule.Name == "" {
			return fmt.Errorf("rule %d has no name", i)
		}
		if _, dup := seen[rule.Name]; dup {
			return fmt.Errorf("duplicate rule name %q", rule.Name)
		}
		seen[rule.Name] = struct{}{}

		for _, addr := range []string{rule.StartIPAddress, rule.EndIPAddress} {
			if ip := net.ParseIP(addr); ip == nil || ip.To4() == nil {
				return fmt.Errorf("rule %q has invalid IPv4 address %q", rule.Name, addr)
			}
		}
	}
	return nil
}
