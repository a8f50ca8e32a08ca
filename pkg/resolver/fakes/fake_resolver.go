package fakes

import (
	"context"
	"net"
	"sync"
)

type FakeResolver struct {
	mu sync.Mutex

	shouldReturnIPs   map[string][]net.IP
	shouldReturnError error

	calls []string
}

func NewFakeResolver() *FakeResolver {
	return &FakeResolver{
		shouldReturnIPs:   make(map[string][]net.IP),
		shouldReturnError: nil,
		calls:             make([]string, 0),
	}
}

// Resolve fails for any hostname it has not been told about, the way an
// unknown name fails in DNS.
func (r *FakeResolver) Resolve(_ context.Context, hostname string) ([]net.IP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.calls = append(r.calls, hostname)

	if r.shouldReturnError != nil {
		return make([]net.IP, 0), r.shouldReturnError
	}

	ips, ok := r.shouldReturnIPs[hostname]
	if !ok {
		return make([]net.IP, 0), &net.DNSError{
			Err: "no such host", Name: hostname, IsNotFound: true,
		}
	}

	return ips, nil
}

func (r *FakeResolver) ShouldReturnIPs(hostname string, ips []net.IP) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shouldReturnIPs[hostname] = ips
}

func (r *FakeResolver) ShouldReturnError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.shouldReturnError = err
}

func (r *FakeResolver) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string{}, r.calls...)
}
