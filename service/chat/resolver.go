package chat

import (
	"IMProject/logger"
	"IMProject/tools/security"
	"net/http"
)

// Identity is the outcome of handshake-time resolution. A zero value means
// the connection stays unbound until an explicit register frame.
type Identity struct {
	UserID string
	Trust  Trust
}

// Resolver extracts a user identity from a connection handshake. Priority,
// first success wins:
//
//  1. JWT from the "jwt" cookie, else from the "token" query parameter,
//     verified against the credential service -> Verified binding.
//  2. Plaintext "userId" query parameter, no verification -> Unverified.
//     Also the fallback when a credential is present but fails to verify
//     (availability over strictness: the connection is degraded, not
//     rejected).
//  3. Neither -> unbound.
//
// Verification runs before the caller touches the registry, so the registry
// lock is never held across credential work.
type Resolver struct {
	jwt security.Options
}

func NewResolver(jwtOpts security.Options) *Resolver {
	return &Resolver{jwt: jwtOpts}
}

func (r *Resolver) Resolve(req *http.Request) Identity {
	token := ""
	if ck, err := req.Cookie("jwt"); err == nil {
		token = ck.Value
	}
	if token == "" {
		token = req.URL.Query().Get("token")
	}

	if token != "" {
		claims, err := security.Verify(r.jwt, token, "")
		if err == nil {
			if uid, uerr := claims.UserID(); uerr == nil {
				return Identity{UserID: uid, Trust: TrustVerified}
			}
		} else {
			logger.Warnf("[chat] handshake credential rejected: %v", err)
		}
	}

	if uid := req.URL.Query().Get("userId"); uid != "" {
		return Identity{UserID: uid, Trust: TrustUnverified}
	}
	return Identity{}
}
