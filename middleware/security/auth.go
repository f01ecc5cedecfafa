package security

import (
	"IMProject/global"
	"IMProject/tools/errs"
	sec "IMProject/tools/security"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Context keys the downstream handlers read.
const (
	CtxUserIDKey = "authUserId"
	CtxTokenKey  = "authorization"
)

type Options struct {
	HeaderToken               string // default "authorization"
	EnableAuthorizationBearer bool   // accept "Authorization: Bearer xxx", default true
}

func DefaultOptions() *Options {
	return &Options{
		HeaderToken:               CtxTokenKey,
		EnableAuthorizationBearer: true,
	}
}

// Middleware verifies the bearer token and injects the caller's user id.
// REST routes require a Verified identity; the weaker trust paths exist only
// on the socket side.
func Middleware(opts *Options) gin.HandlerFunc {
	if opts == nil {
		opts = DefaultOptions()
	}
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))
		if token == "" && opts.EnableAuthorizationBearer {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := sec.Verify(sec.DefaultOptions(global.GetJwtSecret()), token, "")
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail(err.Error()))
			return
		}
		uid, err := claims.UserID()
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid.WithDetail("missing subject"))
			return
		}

		c.Set(CtxTokenKey, token)
		c.Set(CtxUserIDKey, uid)
		c.Next()
	}
}

// CallerID returns the authenticated user id set by Middleware.
func CallerID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}
