package config

import (
	"net"
	"strconv"
)

// withPort replaces the port of addr, keeping its host. An addr that is not
// host:port is treated as a bare host.
func withPort(addr string, port uint) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return net.JoinHostPort(host, strconv.FormatUint(uint64(port), 10))
}
