package httpx

import (
	"net"
	"testing"
)

type stubListener struct {
	addr net.TCPAddr
}

func (sl stubListener) Accept() (net.Conn, error) { return nil, nil }
func (sl stubListener) Close() error              { return nil }
func (sl stubListener) Addr() net.Addr            { return &sl.addr }

func tcpOn(port int) Listener {
	return Listener{stubListener{addr: net.TCPAddr{Port: port}}}
}

func TestBuildAddress(t *testing.T) {
	tests := []struct {
		addr string
		zone string
		ls   Listener
		out  string
	}{
		{addr: "", out: "localhost"},
		{addr: ":", ls: tcpOn(0), out: "localhost"},
		{addr: "", ls: tcpOn(9099), out: "localhost:9099"},
		{addr: ":8000", ls: tcpOn(8000), out: "localhost:8000"},
		{addr: ":8000", ls: tcpOn(8001), out: "localhost:8001"},
		{addr: "relay.exam.edu:8000", ls: tcpOn(8000), out: "relay.exam.edu:8000"},
		{addr: "relay.exam.edu:8000", ls: tcpOn(8001), out: "relay.exam.edu:8001"},
		{addr: "relay.exam.edu:8000", zone: "eu", ls: tcpOn(8001), out: "eu.relay.exam.edu:8001"},
		{addr: ":80", ls: tcpOn(80), out: "localhost"},
		{addr: ":443", ls: tcpOn(443), out: "localhost"},
		{addr: "https://broken:99a9a", out: "https://broken:99a9a"},
		{addr: "[::]", out: "[::]"},
	}

	for _, test := range tests {
		address := buildAddress(test.addr, test.zone, test.ls)
		if address != test.out {
			t.Errorf("expected %v, got %v", test.out, address)
		}
	}
}

func TestWithZonePrefix(t *testing.T) {
	tests := []struct {
		host string
		zone string
		out  string
	}{
		{host: "relay.exam.edu", zone: "us", out: "us.relay.exam.edu"},
		{host: "relay.exam.edu", zone: "", out: "relay.exam.edu"},
		{host: "", zone: "us", out: ""},
		{host: "[::1]", zone: "us", out: "[::1]"},
		{host: "wss://relay.exam.edu", zone: "us", out: "wss://relay.exam.edu"},
	}

	for _, test := range tests {
		if out := withZonePrefix(test.host, test.zone); out != test.out {
			t.Errorf("expected %v, got %v", test.out, out)
		}
	}
}
