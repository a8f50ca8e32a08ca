package lookup

import (
	"net"
)

const (
	FamilyIPv4 = 4
	FamilyIPv6 = 6
)

// Event is the completion of a single host lookup, as reported by the
// connection that performed it.
type Event struct {
	Err     error
	Address string
	Family  int
	Host    string
}

// Source is implemented by anything that reports exactly one lookup
// completion. Listeners registered after the completion are called
// straight away with the stored event.
type Source interface {
	OnceLookup(func(Event))
}

func FamilyOf(ip net.IP) int {
	if ip.To4() != nil {
		return FamilyIPv4
	}
	return FamilyIPv6
}

func Succeeded(host string, ip net.IP) Event {
	return Event{
		Address: ip.String(),
		Family:  FamilyOf(ip),
		Host:    host,
	}
}

func Failed(host string, err error) Event {
	return Event{Err: err, Host: host}
}
