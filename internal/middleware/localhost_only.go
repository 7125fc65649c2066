package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LocalhostOnly middleware - only allow localhost or whitelisted IPs access
type LocalhostOnly struct {
	logger     *logrus.Logger
	allowedIPs []string // List of allowed IP addresses or CIDR ranges
}

// NewLocalhostOnly creates the localhost access restriction middleware
func NewLocalhostOnly(logger *logrus.Logger, allowedIPs []string) *LocalhostOnly {
	return &LocalhostOnly{
		logger:     logger,
		allowedIPs: allowedIPs,
	}
}

// Restrict restricts access to localhost or the configured allowlist
func (l *LocalhostOnly) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		remoteIP, _, _ := net.SplitHostPort(c.Request.RemoteAddr)

		if l.isAllowed(clientIP) || l.isAllowed(remoteIP) {
			c.Next()
			return
		}

		l.logger.WithFields(logrus.Fields{
			"client_ip":   clientIP,
			"remote_addr": c.Request.RemoteAddr,
			"path":        c.Request.URL.Path,
			"method":      c.Request.Method,
		}).Warn("Admin API access denied")

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Access restricted to localhost or whitelisted IPs",
		})
	}
}

// isAllowed checks an IP against localhost and the configured allowlist
func (l *LocalhostOnly) isAllowed(ip string) bool {
	if ip == "" {
		return false
	}
	parsed := net.ParseIP(ip)
	if parsed != nil && parsed.IsLoopback() {
		return true
	}
	for _, allowed := range l.allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if strings.Contains(allowed, "/") {
			if _, cidr, err := net.ParseCIDR(allowed); err == nil && parsed != nil && cidr.Contains(parsed) {
				return true
			}
			continue
		}
		if allowed == ip {
			return true
		}
	}
	return false
}
