package addr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/h3ow3d/vbm/internal/util"
)

func TestParseNetwork(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in      string
		want    string
		static  bool
		wantErr bool
	}{
		{"dhcp", "dhcp", false, false},
		{"DHCP", "dhcp", false, false},
		{"auto", "dhcp", false, false},
		{"10.0.0.0/24", "10.0.0.0/24", true, false},
		{" 192.168.0.0/16 ", "192.168.0.0/16", true, false},
		{"10.0.0.5/24", "", false, true},
		{"10.0.0.0/31", "", false, true},
		{"fd00::/64", "", false, true},
		{"10.0.0.0", "", false, true},
	}
	for _, tt := range tests {
		n, err := ParseNetwork(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.static, n.Static, tt.in)
		assert.Equal(t, tt.want, n.String(), tt.in)
	}
}

func TestNetworkAddresses(t *testing.T) {
	t.Parallel()
	n, err := ParseNetwork("10.0.0.0/24")
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.1", n.Gateway().String())
	assert.Equal(t, "255.255.255.0", n.Mask().String())

	for node, want := range []string{"10.0.0.10", "10.0.0.11", "10.0.0.12"} {
		ip, err := n.IPFor(node)
		require.NoError(t, err)
		assert.Equal(t, want, ip.String())
		assert.Equal(t, n.Base+NodeOffset+IPv4(node), ip)
	}
}

func TestNetworkCapacity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		cidr string
		want int
	}{
		{"10.0.0.0/24", 245},
		{"10.0.0.0/28", 5},
		{"10.0.0.0/29", 0},
	}
	for _, tt := range tests {
		n, err := ParseNetwork(tt.cidr)
		require.NoError(t, err)
		assert.Equal(t, tt.want, n.Capacity(), tt.cidr)
	}

	n, _ := ParseNetwork("10.0.0.0/28")
	last, err := n.IPFor(4)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.14", last.String())

	_, err = n.IPFor(5)
	var aerr *util.AddressError
	require.True(t, errors.As(err, &aerr))
	assert.Equal(t, 5, aerr.Node)
}

func TestIPForDynamicIsInternal(t *testing.T) {
	t.Parallel()
	_, err := Network{}.IPFor(0)
	assert.True(t, errors.Is(err, util.ErrInternal))
}
