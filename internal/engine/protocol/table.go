package protocol

import (
	"strings"

	"github.com/google/gopacket/layers"
)

// builtin maps IANA protocol numbers to their canonical lowercase keyword.
var builtin = map[layers.IPProtocol]string{
	layers.IPProtocolICMPv4:  "icmp",
	layers.IPProtocolIGMP:    "igmp",
	layers.IPProtocolIPv4:    "ipv4",
	layers.IPProtocolTCP:     "tcp",
	layers.IPProtocolUDP:     "udp",
	layers.IPProtocolIPv6:    "ipv6",
	layers.IPProtocolGRE:     "gre",
	layers.IPProtocolESP:     "esp",
	layers.IPProtocolAH:      "ah",
	layers.IPProtocolICMPv6:  "ipv6-icmp",
	layers.IPProtocolSCTP:    "sctp",
	layers.IPProtocolUDPLite: "udplite",
}

// Table translates protocol numbers into lowercase protocol names.
// A Table is never modified after construction.
type Table struct {
	names map[int]string
}

// Default returns the built-in protocol table.
func Default() *Table {
	names := make(map[int]string, len(builtin))
	for num, name := range builtin {
		names[int(num)] = name
	}
	return &Table{names: names}
}

// WithOverrides returns a new table holding t's entries plus the given ones.
// Names are trimmed and lowercased; an empty name removes the number.
func (t *Table) WithOverrides(overrides map[int]string) *Table {
	names := make(map[int]string, len(t.names)+len(overrides))
	for num, name := range t.names {
		names[num] = name
	}
	for num, name := range overrides {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			delete(names, num)
			continue
		}
		names[num] = name
	}
	return &Table{names: names}
}

// Name returns the protocol name for num, or "" when the number is unknown.
func (t *Table) Name(num int) string {
	return t.names[num]
}

// Len returns the number of known protocols.
func (t *Table) Len() int {
	return len(t.names)
}
