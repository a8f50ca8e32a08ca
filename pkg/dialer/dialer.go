package dialer

import (
	"context"
	"net"
	"net/http"
	"time"

	"code.cloudfoundry.org/lager"

	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/hook"
	"github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/lookup"
	r "github.com/alphagov/paas-observability-release/src/hostname-spy/pkg/resolver"
)

func init() {
	initMetrics()
}

const (
	defaultTimeout   = 30 * time.Second
	defaultKeepAlive = 30 * time.Second
)

// Dialer connects out after resolving hostnames with its resolver, and
// announces every attempt on its tap.
type Dialer struct {
	tap      *hook.Tap
	resolver r.Resolver

	logger lager.Logger

	dialer *net.Dialer
}

func New(
	tap *hook.Tap,
	resolver r.Resolver,

	logger lager.Logger,
) *Dialer {
	return &Dialer{
		tap:      tap,
		resolver: resolver,

		logger: logger.Session("dialer"),

		dialer: &net.Dialer{
			Timeout:   defaultTimeout,
			KeepAlive: defaultKeepAlive,
		},
	}
}

func (d *Dialer) SetTimeout(timeout time.Duration) {
	d.dialer.Timeout = timeout
}

func kindOf(network string) hook.Kind {
	switch network {
	case "udp", "udp4", "udp6":
		return hook.KindUDPConnect
	default:
		return hook.KindTCPConnect
	}
}

func suitable(network string, ips []net.IP) []net.IP {
	matching := make([]net.IP, 0, len(ips))
	for _, ip := range ips {
		family := lookup.FamilyOf(ip)
		switch {
		case network == "tcp4" || network == "udp4":
			if family != lookup.FamilyIPv4 {
				continue
			}
		case network == "tcp6" || network == "udp6":
			if family != lookup.FamilyIPv6 {
				continue
			}
		}
		matching = append(matching, ip)
	}
	return matching
}

func (d *Dialer) DialContext(ctx context.Context, network, address string) (net.Conn, error) {
	DialerDialsTotal.Inc()

	conn, err := d.dial(ctx, network, address)
	if err != nil {
		DialerDialErrorsTotal.Inc()
		d.logger.Debug("dial-failed", lager.Data{
			"network": network, "address": address, "error": err.Error(),
		})
	}

	return conn, err
}

func (d *Dialer) dial(ctx context.Context, network, address string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(address)
	if err != nil {
		return nil, err
	}

	a := newAttempt()
	defer a.finish()

	d.tap.Announce(hook.Resource{
		ID:        d.tap.NextID(),
		Kind:      kindOf(network),
		TriggerID: hook.TriggerFrom(ctx),
		Handle:    a,
	})
	a.wire()

	// IP literals are connected to directly and never looked up.
	if net.ParseIP(host) != nil {
		return d.dialer.DialContext(ctx, network, address)
	}

	ips, err := d.resolver.Resolve(ctx, host)
	if err == nil {
		ips = suitable(network, ips)
		if len(ips) == 0 {
			err = &net.DNSError{Err: "no suitable address found", Name: host, IsNotFound: true}
		}
	}
	if err != nil {
		a.owner.Fire(lookup.Failed(host, err))
		return nil, err
	}

	a.owner.Fire(lookup.Succeeded(host, ips[0]))

	var firstErr error
	for _, ip := range ips {
		conn, err := d.dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
		if err == nil {
			return conn, nil
		}
		if firstErr == nil {
			firstErr = err
		}
		if ctx.Err() != nil {
			break
		}
	}

	return nil, firstErr
}

// Transport returns an HTTP transport which dials through d.
func (d *Dialer) Transport() *http.Transport {
	return &http.Transport{
		DialContext:           d.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
