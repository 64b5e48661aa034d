package topology

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/h3ow3d/vbm/internal/types"
	"github.com/h3ow3d/vbm/internal/util"
)

// DefaultService exposes SSH.
const DefaultService = "ssh:22"

// ParseService parses name:port[-port][/tcp][:internal].
func ParseService(s string) (types.Service, error) {
	bad := func(reason string) (types.Service, error) {
		return types.Service{}, util.NewValidationError("service", s, reason)
	}

	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return bad("expected name:port[-port][/tcp][:internal]")
	}
	svc := types.Service{Name: strings.TrimSpace(parts[0]), Protocol: "TCP", External: true}
	if svc.Name == "" {
		return bad("empty name")
	}

	ports := parts[1]
	if i := strings.IndexByte(ports, '/'); i >= 0 {
		if proto := strings.ToUpper(ports[i+1:]); proto != "TCP" {
			return bad(fmt.Sprintf("unsupported protocol %q", ports[i+1:]))
		}
		ports = ports[:i]
	}

	lo, hi, ok := strings.Cut(ports, "-")
	first, err := parsePort(lo)
	if err != nil {
		return bad(err.Error())
	}
	svc.PortRange = strconv.Itoa(first)
	if ok {
		last, err := parsePort(hi)
		if err != nil {
			return bad(err.Error())
		}
		if last < first {
			return bad("port range is reversed")
		}
		if last > first {
			svc.PortRange = fmt.Sprintf("%d-%d", first, last)
		}
	}

	if len(parts) == 3 {
		if !strings.EqualFold(parts[2], "internal") {
			return bad(fmt.Sprintf("unknown qualifier %q", parts[2]))
		}
		svc.External = false
	}
	return svc, nil
}

func parsePort(s string) (int, error) {
	p, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("port %q is not a number", s)
	}
	if p < 1 || p > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", p)
	}
	return p, nil
}
