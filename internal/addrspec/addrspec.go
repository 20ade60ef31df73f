// Package addrspec parses the address notation used by the console's
// add and remove intents: a single address, a dash-separated range, or
// a comma-separated mix of both, all constrained to the configured
// subnet.
//
//	192.168.0.1
//	192.168.0.1-192.168.0.10
//	192.168.0.1,192.168.0.5-192.168.0.10
package addrspec

import (
	"fmt"
	"net/netip"
	"strings"
)

// Parse expands a spec into the individual addresses it names, in spec
// order with duplicates dropped.
func Parse(spec string, network netip.Prefix) ([]string, error) {
	var result []string
	seen := make(map[string]bool)

	add := func(a netip.Addr) {
		s := a.String()
		if !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		if strings.Contains(part, "-") {
			start, finish, err := parseRange(part, network)
			if err != nil {
				return nil, err
			}
			for a := start; a.Compare(finish) <= 0; a = a.Next() {
				add(a)
			}
			continue
		}

		a, err := parseAddress(part, network)
		if err != nil {
			return nil, err
		}
		add(a)
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("empty address spec %q", spec)
	}
	return result, nil
}

func parseAddress(s string, network netip.Prefix) (netip.Addr, error) {
	a, err := netip.ParseAddr(strings.TrimSpace(s))
	if err != nil {
		return netip.Addr{}, fmt.Errorf("invalid address %q", s)
	}
	if !network.Contains(a) {
		return netip.Addr{}, fmt.Errorf("address %q does not belong to the configured network %q", a, network)
	}
	return a, nil
}

func parseRange(s string, network netip.Prefix) (start, finish netip.Addr, err error) {
	first, second, ok := strings.Cut(s, "-")
	if !ok {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("expected two dash-separated addresses in %q", s)
	}
	if start, err = parseAddress(first, network); err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	if finish, err = parseAddress(second, network); err != nil {
		return netip.Addr{}, netip.Addr{}, err
	}
	if start.Compare(finish) > 0 {
		return netip.Addr{}, netip.Addr{}, fmt.Errorf("range %q runs backwards", s)
	}
	return start, finish, nil
}
