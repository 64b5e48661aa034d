// Package addr derives MAC and IPv4 addresses for every (node, interface)
// pair from fixed bases. Allocation is pure arithmetic: the same indices
// always yield the same addresses and no allocator state is kept.
package addr

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"

	"github.com/h3ow3d/vbm/internal/util"
)

// MAC is a 48-bit hardware address.
type MAC uint64

const macBits = 48

// DefaultBaseMAC is the first address of the block handed out to VMs.
const DefaultBaseMAC MAC = 0x2cc260000000

// ParseMAC parses six colon- or dash-separated hex octets.
func ParseMAC(s string) (MAC, error) {
	sep := ":"
	if strings.Contains(s, "-") {
		sep = "-"
	}
	octets := strings.Split(s, sep)
	if len(octets) != 6 {
		return 0, fmt.Errorf("invalid MAC address %q: want 6 octets", s)
	}
	var m MAC
	for _, o := range octets {
		if len(o) != 2 {
			return 0, fmt.Errorf("invalid MAC address %q: octet %q", s, o)
		}
		b, err := strconv.ParseUint(o, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid MAC address %q: octet %q", s, o)
		}
		m = m<<8 | MAC(b)
	}
	return m, nil
}

// String formats m as lower-case colon-separated octets.
func (m MAC) String() string {
	var b strings.Builder
	for i := macBits/8 - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "%02x", byte(m>>(8*i)))
		if i > 0 {
			b.WriteByte(':')
		}
	}
	return b.String()
}

// IPv4 is an IPv4 address as a 32-bit integer.
type IPv4 uint32

// ParseIPv4 parses a dotted-quad address.
func ParseIPv4(s string) (IPv4, error) {
	a, err := netip.ParseAddr(s)
	if err != nil || !a.Is4() {
		return 0, fmt.Errorf("invalid IPv4 address %q", s)
	}
	b := a.As4()
	return IPv4(b[0])<<24 | IPv4(b[1])<<16 | IPv4(b[2])<<8 | IPv4(b[3]), nil
}

// String formats ip in dotted-quad form.
func (ip IPv4) String() string {
	return netip.AddrFrom4([4]byte{byte(ip >> 24), byte(ip >> 16), byte(ip >> 8), byte(ip)}).String()
}

// PrefixMask returns the netmask for a prefix length in [0, 32].
func PrefixMask(prefix int) IPv4 {
	if prefix <= 0 {
		return 0
	}
	return IPv4(^uint32(0) << (32 - prefix))
}

// Allocator hands out MAC addresses relative to a base.
type Allocator struct {
	base MAC
}

const (
	// interfaceShift separates interfaces into blocks of 2^16 nodes.
	interfaceShift = 16
	// MaxNodes is the number of node indices one interface block holds.
	MaxNodes = 1 << interfaceShift
	// hostBits is the part of the base below the vendor prefix; offsets must
	// stay inside it.
	hostBits = 24
)

// NewAllocator returns an allocator rooted at base.
func NewAllocator(base MAC) *Allocator {
	return &Allocator{base: base}
}

// Base returns the allocator's base address.
func (a *Allocator) Base() MAC { return a.base }

// MACFor returns base + (iface << 16) + node.
func (a *Allocator) MACFor(node, iface int) (MAC, error) {
	if node < 0 || node >= MaxNodes {
		return 0, &util.AddressError{Node: node, Interface: iface,
			Reason: fmt.Sprintf("node index exceeds MAC block size %d", MaxNodes)}
	}
	if iface < 0 {
		return 0, &util.AddressError{Node: node, Interface: iface, Reason: "negative interface index"}
	}
	offset := uint64(iface)<<interfaceShift + uint64(node)
	low := uint64(a.base) & (1<<hostBits - 1)
	if low+offset >= 1<<hostBits {
		return 0, &util.AddressError{Node: node, Interface: iface,
			Reason: fmt.Sprintf("MAC %s + %#x overflows the vendor block", a.base, offset)}
	}
	return a.base + MAC(offset), nil
}
