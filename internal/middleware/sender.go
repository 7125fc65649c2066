package middleware

import (
	"net/http"

	"airdrop-backend/internal/distributor"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SenderHeader carries the effective originator of a claim attempt, set by
// the trusted meta-transaction forwarder in front of this service. The
// forwarder is the component that verifies the original caller; this
// service only consumes its result.
const SenderHeader = "X-Effective-Sender"

// ResolveSender extracts the effective sender from the forwarder header,
// validates it, and stores it in both the gin context and the request
// context for the orchestrator's SenderResolver.
func ResolveSender() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(SenderHeader)
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing " + SenderHeader + " header",
			})
			return
		}
		if !common.IsHexAddress(raw) {
			logrus.WithFields(logrus.Fields{
				"header": raw,
				"path":   c.Request.URL.Path,
			}).Warn("malformed effective sender header")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "malformed sender address",
			})
			return
		}
		sender := common.HexToAddress(raw)
		c.Set("sender_address", sender)
		c.Request = c.Request.WithContext(distributor.WithSender(c.Request.Context(), sender))
		c.Next()
	}
}
