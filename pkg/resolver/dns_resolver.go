package resolver

import (
	"context"
	"net"
	"time"

	"github.com/miekg/dns"
	"github.com/pkg/errors"
)

const (
	DefaultDNSTimeout = 2 * time.Second
)

type dnsResolver struct {
	server string
	client *dns.Client
}

// NewDNSResolver resolves by asking a single nameserver, given as
// host:port, for A and then AAAA records.
func NewDNSResolver(server string, timeout time.Duration) Resolver {
	if timeout <= 0 {
		timeout = DefaultDNSTimeout
	}

	return &dnsResolver{
		server: server,
		client: &dns.Client{Net: "udp", Timeout: timeout},
	}
}

func notFound(hostname string, server string) error {
	return &net.DNSError{
		Err:        "no such host",
		Name:       hostname,
		Server:     server,
		IsNotFound: true,
	}
}

func (r *dnsResolver) query(ctx context.Context, hostname string, qtype uint16) ([]net.IP, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(hostname), qtype)
	msg.RecursionDesired = true

	in, _, err := r.client.ExchangeContext(ctx, msg, r.server)
	if err != nil {
		return nil, errors.Wrapf(
			err, "querying %s for %s %s",
			r.server, dns.TypeToString[qtype], hostname,
		)
	}

	switch in.Rcode {
	case dns.RcodeSuccess:
	case dns.RcodeNameError:
		return nil, notFound(hostname, r.server)
	default:
		return nil, errors.Errorf(
			"querying %s for %s %s: %s",
			r.server, dns.TypeToString[qtype], hostname, dns.RcodeToString[in.Rcode],
		)
	}

	ips := make([]net.IP, 0, len(in.Answer))
	for _, answer := range in.Answer {
		switch rr := answer.(type) {
		case *dns.A:
			ips = append(ips, rr.A)
		case *dns.AAAA:
			ips = append(ips, rr.AAAA)
		}
	}

	return ips, nil
}

// resolve returns the addresses of every query type which answered. It
// fails only when no query produced an address, preferring not-found over
// other failures.
func (r *dnsResolver) resolve(ctx context.Context, hostname string) ([]net.IP, error) {
	if hostname == "" {
		return nil, notFound(hostname, r.server)
	}

	var (
		ips      = make([]net.IP, 0)
		missing  error
		firstErr error
	)

	for _, qtype := range []uint16{dns.TypeA, dns.TypeAAAA} {
		found, err := r.query(ctx, hostname, qtype)
		if err != nil {
			if dnsErr, ok := err.(*net.DNSError); ok && dnsErr.IsNotFound {
				missing = err
			} else if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if len(found) == 0 {
			missing = notFound(hostname, r.server)
		}
		ips = append(ips, found...)
	}

	if len(ips) > 0 {
		return ips, nil
	}

	if missing != nil {
		return nil, missing
	}
	if firstErr != nil {
		return nil, firstErr
	}

	return nil, notFound(hostname, r.server)
}

func (r *dnsResolver) Resolve(ctx context.Context, hostname string) ([]net.IP, error) {
	ips, err := r.resolve(ctx, hostname)

	ResolverResolvesTotal.Inc()

	if err != nil {
		ResolverResolveFailuresTotal.Inc()
	}

	return ips, err
}
