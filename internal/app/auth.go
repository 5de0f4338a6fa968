package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// credentials is a Basic Auth user/password pair.
type credentials struct {
	user, pass []byte
}

// metricsCredentials returns nil when /metrics is public.
func metricsCredentials(enabled bool, username, password string) *credentials {
	if !enabled {
		return nil
	}
	return &credentials{user: []byte(username), pass: []byte(password)}
}

// valid compares both fields in constant time, always evaluating both.
func (c *credentials) valid(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	userOK := subtle.ConstantTimeCompare([]byte(user), c.user)
	passOK := subtle.ConstantTimeCompare([]byte(pass), c.pass)
	return ok && userOK&passOK == 1
}

// requireBasicAuth rejects requests without matching credentials. A nil
// creds lets every request through.
func requireBasicAuth(realm string, creds *credentials) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`
	return func(c *gin.Context) {
		if creds != nil && !creds.valid(c.Request) {
			c.Header("WWW-Authenticate", challenge)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
