package addr

import (
	"fmt"
	"net/netip"
	"strings"

	"github.com/h3ow3d/vbm/internal/util"
)

// NodeOffset is the host offset of node 0; lower offsets are reserved for
// the gateway and other infrastructure.
const NodeOffset = 10

// GatewayOffset is the host offset of the gateway, which also serves DNS.
const GatewayOffset = 1

// Dynamic is the textual form of an automatically addressed network.
const Dynamic = "dhcp"

// Network is either dynamic addressing or a static base/prefix pair.
// The zero value is a dynamic network.
type Network struct {
	Static bool
	Base   IPv4
	Prefix int
}

// ParseNetwork parses "dhcp" (or "auto") or an IPv4 CIDR whose host bits are
// zero, e.g. "10.0.0.0/24".
func ParseNetwork(s string) (Network, error) {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case Dynamic, "auto":
		return Network{}, nil
	}
	p, err := netip.ParsePrefix(s)
	if err != nil || !p.Addr().Is4() {
		return Network{}, fmt.Errorf("invalid network %q: want %q or an IPv4 CIDR", s, Dynamic)
	}
	if p.Masked() != p {
		return Network{}, fmt.Errorf("invalid network %q: host bits set, did you mean %s?", s, p.Masked())
	}
	if p.Bits() > 30 {
		return Network{}, fmt.Errorf("invalid network %q: prefix /%d leaves no room for nodes", s, p.Bits())
	}
	base, _ := ParseIPv4(p.Addr().String())
	return Network{Static: true, Base: base, Prefix: p.Bits()}, nil
}

// String is the inverse of ParseNetwork.
func (n Network) String() string {
	if !n.Static {
		return Dynamic
	}
	return fmt.Sprintf("%s/%d", n.Base, n.Prefix)
}

// Mask returns the network mask.
func (n Network) Mask() IPv4 { return PrefixMask(n.Prefix) }

// Gateway returns the reserved gateway/DNS address.
func (n Network) Gateway() IPv4 { return n.Base + GatewayOffset }

// size is the number of addresses in the network, broadcast included.
func (n Network) size() uint64 { return 1 << (32 - n.Prefix) }

// Capacity is the number of nodes the network can address without reaching
// the broadcast address.
func (n Network) Capacity() int {
	if !n.Static {
		return MaxNodes
	}
	c := int(n.size()) - 1 - NodeOffset
	if c < 0 {
		return 0
	}
	return c
}

// IPFor returns base + 10 + node.
func (n Network) IPFor(node int) (IPv4, error) {
	if !n.Static {
		return 0, util.Internalf("IPFor called on dynamic network")
	}
	if node < 0 || node >= n.Capacity() {
		return 0, &util.AddressError{Node: node, Interface: -1,
			Reason: fmt.Sprintf("network %s has room for %d nodes", n, n.Capacity())}
	}
	return n.Base + NodeOffset + IPv4(node), nil
}
