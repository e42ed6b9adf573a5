package middleware

import (
	"net/netip"

	"github.com/gin-gonic/gin"
)

// clientKey identifies the caller for rate limiting. The address comes from
// gin, which only honours forwarding headers sent by a trusted proxy. IPv6
// callers share one key per /64 so rotating through a prefix does not reset
// the limit.
func clientKey(c *gin.Context) string {
	ip := c.ClientIP()
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	addr = addr.Unmap()
	if addr.Is4() {
		return addr.String()
	}
	prefix, err := addr.Prefix(64)
	if err != nil {
		return addr.String()
	}
	return prefix.String()
}
