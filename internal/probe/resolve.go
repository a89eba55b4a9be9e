package probe

import (
	"context"
	"fmt"
	"net"
)

// ResolveIPv4 resolves a hostname or dotted-quad string to an IPv4 address.
func ResolveIPv4(ctx context.Context, target string) (net.IP, error) {
	// Check if target is already an IP address
	if ip := net.ParseIP(target); ip != nil {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
		return nil, fmt.Errorf("cannot resolve %s: %w", target, ErrUnknownHost)
	}

	ips, err := net.DefaultResolver.LookupIP(ctx, "ip4", target)
	if err != nil || len(ips) == 0 {
		return nil, fmt.Errorf("cannot resolve %s: %w", target, ErrUnknownHost)
	}

	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4, nil
		}
	}

	return nil, fmt.Errorf("cannot resolve %s: %w", target, ErrUnknownHost)
}
