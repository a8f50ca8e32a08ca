package resolver

import (
	"context"
	"net"
)

func init() {
	initMetrics()
}

type Resolver interface {
	Resolve(ctx context.Context, hostname string) ([]net.IP, error)
}

type resolver struct {
	r *net.Resolver
}

func (r *resolver) Resolve(ctx context.Context, hostname string) ([]net.IP, error) {
	addrs, err := r.r.LookupIPAddr(ctx, hostname)

	ResolverResolvesTotal.Inc()

	if err != nil {
		ResolverResolveFailuresTotal.Inc()
		return nil, err
	}

	ips := make([]net.IP, 0, len(addrs))
	for _, addr := range addrs {
		ips = append(ips, addr.IP)
	}

	return ips, nil
}

// NewResolver resolves through the operating system's resolver.
func NewResolver() Resolver {
	return &resolver{r: net.DefaultResolver}
}
