package lookup

import (
	"fmt"
	"strconv"
)

// Record is the outcome of one host resolution. Address and Family are
// nil exactly when Error is true.
type Record struct {
	Hostname string  `json:"hostname"`
	Address  *string `json:"address"`
	Family   *int    `json:"family"`
	Error    bool    `json:"error"`
}

// NewRecord maps a lookup event onto a record. An event carrying an
// error, no address or an unknown family is a failed resolution.
func NewRecord(event Event) Record {
	record := Record{Hostname: event.Host}

	known := event.Family == FamilyIPv4 || event.Family == FamilyIPv6
	if event.Err != nil || event.Address == "" || !known {
		record.Error = true
		return record
	}

	address := event.Address
	family := event.Family

	record.Address = &address
	record.Family = &family

	return record
}

func (r Record) AddressLabel() string {
	if r.Address == nil {
		return ""
	}
	return *r.Address
}

func (r Record) FamilyLabel() string {
	if r.Family == nil {
		return ""
	}
	return strconv.Itoa(*r.Family)
}

func (r Record) ErrorLabel() string {
	return strconv.FormatBool(r.Error)
}

func (r Record) String() string {
	if r.Error || r.Address == nil || r.Family == nil {
		return fmt.Sprintf("%s: unresolved", r.Hostname)
	}
	return fmt.Sprintf("%s: %s (IPv%d)", r.Hostname, *r.Address, *r.Family)
}
