package httpx

import (
	"net"
	"strconv"
	"strings"
)

type Address string

func (a Address) SplitHostPort() (string, int) {
	host, p, err := net.SplitHostPort(string(a))
	if err != nil {
		return string(a), 0
	}
	port, _ := strconv.Atoi(p)
	return host, port
}

// buildAddress joins network host from the address param with an optional
// zone prefix and the port value of the listener.
//
// As example, address host.com:8080 and listener 123.123.123.123:8888 will be
// transformed to host.com:8888.
func buildAddress(address string, zone string, l Listener) string {
	addr, _, err := net.SplitHostPort(address)
	if err != nil {
		addr = address
	}
	if addr == "" {
		addr = "localhost"
	}
	addr = withZonePrefix(addr, zone)

	port := l.GetPort()
	if port > 0 && port != 80 && port != 443 {
		addr += ":" + strconv.Itoa(port)
	}
	return addr
}

func withZonePrefix(host string, zone string) string {
	if zone == "" || host == "" || strings.HasPrefix(host, "[") ||
		strings.Contains(host, "://") {
		return host
	}
	return zone + "." + host
}

func extractHost(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return address
	}
	return host
}
