package cluster

import (
	"fmt"
	"net/netip"
	"regexp"
	"strings"
)

// FirewallRule is one UFW rule. Zero fields take the defaults: inbound,
// tcp, allow, from anywhere.
type FirewallRule struct {
	Direction string `json:"direction,omitempty"` // IN | OUT
	Protocol  string `json:"protocol,omitempty"`  // tcp | udp
	Port      string `json:"port"`                // "22", "8000:8100" or "any"
	Action    string `json:"action,omitempty"`    // ALLOW | DENY | REJECT | LIMIT
	SourceIP  string `json:"source_ip,omitempty"`
	Comment   string `json:"comment,omitempty"`
}

var (
	rePort        = regexp.MustCompile(`^[0-9]{1,5}(:[0-9]{1,5})?$`)
	reCountryCode = regexp.MustCompile(`^[a-z]{2}$`)
)

func (r FirewallRule) normalized() (FirewallRule, error) {
	r.Direction = strings.ToUpper(strings.TrimSpace(r.Direction))
	if r.Direction == "" {
		r.Direction = "IN"
	}
	r.Protocol = strings.ToLower(strings.TrimSpace(r.Protocol))
	if r.Protocol == "" {
		r.Protocol = "tcp"
	}
	r.Action = strings.ToLower(strings.TrimSpace(r.Action))
	if r.Action == "" {
		r.Action = "allow"
	}
	r.Port = strings.ToLower(strings.TrimSpace(r.Port))
	if r.SourceIP == "" {
		r.SourceIP = "0.0.0.0/0"
	}

	switch {
	case r.Direction != "IN" && r.Direction != "OUT":
		return r, fmt.Errorf("direction %q: want IN or OUT", r.Direction)
	case r.Protocol != "tcp" && r.Protocol != "udp":
		return r, fmt.Errorf("protocol %q: want tcp or udp", r.Protocol)
	case r.Action != "allow" && r.Action != "deny" && r.Action != "reject" && r.Action != "limit":
		return r, fmt.Errorf("action %q: want allow, deny, reject or limit", r.Action)
	case r.Port != "any" && !rePort.MatchString(r.Port):
		return r, fmt.Errorf("port %q: want a number, a range lo:hi or any", r.Port)
	}
	if _, err := netip.ParsePrefix(r.SourceIP); err != nil {
		if _, err := netip.ParseAddr(r.SourceIP); err != nil {
			return r, fmt.Errorf("source %q: not an address or CIDR", r.SourceIP)
		}
	}
	r.Comment = strings.NewReplacer("'", "", "\n", " ").Replace(r.Comment)
	return r, nil
}

// UFWCommands renders rules as a full UFW reset: default deny inbound,
// allow outbound, one line per rule, then enable.
func UFWCommands(rules []FirewallRule) ([]string, error) {
	cmds := []string{"ufw --force reset", "ufw default deny incoming", "ufw default allow outgoing"}
	for i, raw := range rules {
		r, err := raw.normalized()
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		cmd := "ufw " + r.Action
		if r.Direction == "IN" {
			cmd += " from " + r.SourceIP
		} else {
			cmd += " out to " + r.SourceIP
		}
		if r.Port != "any" {
			if r.Direction == "IN" {
				cmd += " to any"
			}
			cmd += " port " + r.Port + " proto " + r.Protocol
		}
		if r.Comment != "" {
			cmd += " comment '" + r.Comment + "'"
		}
		cmds = append(cmds, cmd)
	}
	return append(cmds, "ufw --force enable"), nil
}

// BlockCountryCommands drops inbound traffic from a country's address set.
// The set is created empty; populating it from a geo-IP feed is left to the
// operator.
func BlockCountryCommands(countryCode string) ([]string, error) {
	cc := strings.ToLower(strings.TrimSpace(countryCode))
	if !reCountryCode.MatchString(cc) {
		return nil, fmt.Errorf("country code %q: want two letters", countryCode)
	}
	set := "country_" + cc
	return []string{
		"apt-get install -y ipset",
		"ipset create " + set + " hash:net -exist",
		"iptables -I INPUT -m set --match-set " + set + " src -j DROP",
	}, nil
}

// WebNodeRules opens SSH, HTTP and HTTPS.
func WebNodeRules() []FirewallRule {
	return []FirewallRule{
		{Port: "22", Comment: "ssh"},
		{Port: "80", Comment: "http"},
		{Port: "443", Comment: "https"},
	}
}
