package chat

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"IMProject/tools/security"

	"github.com/stretchr/testify/require"
)

var resolverOpts = security.DefaultOptions([]byte("resolver-test-secret"))

func issueToken(t *testing.T, user string) string {
	t.Helper()
	token, _, _, err := security.Generate(resolverOpts, user, nil)
	require.NoError(t, err)
	return token
}

func TestResolveVerifiedCookie(t *testing.T) {
	req := require.New(t)
	r := NewResolver(resolverOpts)

	hr := httptest.NewRequest(http.MethodGet, "/chat", nil)
	hr.AddCookie(&http.Cookie{Name: "jwt", Value: issueToken(t, "alice")})

	id := r.Resolve(hr)
	req.Equal("alice", id.UserID)
	req.Equal(TrustVerified, id.Trust)
}

func TestResolveVerifiedTokenParam(t *testing.T) {
	req := require.New(t)
	r := NewResolver(resolverOpts)

	hr := httptest.NewRequest(http.MethodGet,
		"/chat?token="+url.QueryEscape(issueToken(t, "bob")), nil)

	id := r.Resolve(hr)
	req.Equal("bob", id.UserID)
	req.Equal(TrustVerified, id.Trust)
}

func TestResolveCookieWinsOverQueryParams(t *testing.T) {
	req := require.New(t)
	r := NewResolver(resolverOpts)

	hr := httptest.NewRequest(http.MethodGet, "/chat?userId=mallory", nil)
	hr.AddCookie(&http.Cookie{Name: "jwt", Value: issueToken(t, "alice")})

	id := r.Resolve(hr)
	req.Equal("alice", id.UserID)
	req.Equal(TrustVerified, id.Trust)
}

func TestResolvePlaintextUserIDIsUnverified(t *testing.T) {
	req := require.New(t)
	r := NewResolver(resolverOpts)

	hr := httptest.NewRequest(http.MethodGet, "/chat?userId=carol", nil)

	id := r.Resolve(hr)
	req.Equal("carol", id.UserID)
	req.Equal(TrustUnverified, id.Trust)
}

// A bad credential degrades to the plaintext path rather than rejecting the
// handshake outright.
func TestResolveInvalidTokenFallsThrough(t *testing.T) {
	req := require.New(t)
	r := NewResolver(resolverOpts)

	wrong := security.DefaultOptions([]byte("some-other-secret"))
	token, _, _, err := security.Generate(wrong, "alice", nil)
	req.NoError(err)

	hr := httptest.NewRequest(http.MethodGet,
		"/chat?token="+url.QueryEscape(token)+"&userId=alice", nil)

	id := r.Resolve(hr)
	req.Equal("alice", id.UserID)
	req.Equal(TrustUnverified, id.Trust)
}

func TestResolveNothingMeansUnbound(t *testing.T) {
	r := NewResolver(resolverOpts)
	hr := httptest.NewRequest(http.MethodGet, "/chat", nil)
	require.Equal(t, Identity{}, r.Resolve(hr))
}
