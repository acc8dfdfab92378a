package netutil

import (
	"net"
	"strings"
)

// ParseCIDRs parses an allowlist. Bare addresses are accepted as single-host
// networks; entries that parse as neither are returned in invalid.
func ParseCIDRs(cidrs []string) (out []*net.IPNet, invalid []string) {
	for _, s := range cidrs {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, n, err := net.ParseCIDR(s); err == nil {
			out = append(out, n)
			continue
		}
		if ip := net.ParseIP(s); ip != nil {
			bits := 128
			if ip.To4() != nil {
				ip, bits = ip.To4(), 32
			}
			out = append(out, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}
		invalid = append(invalid, s)
	}
	return out, invalid
}
