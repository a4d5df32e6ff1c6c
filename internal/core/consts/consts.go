package consts

import "time"

// cache keys
const (
	// UserIdentityKey caches the identity snapshot served by /api/auth/me
	UserIdentityKey = "plinth:identity:"

	// IdentityCacheTTL bounds staleness of the cached snapshot; writes
	// invalidate eagerly, the TTL is a backstop
	IdentityCacheTTL = time.Hour
)

// session defaults
const (
	DefaultCookieName    = "plinth_session"
	DefaultSessionExpire = 7 * 24 * time.Hour
)

// invites
const (
	DefaultInviteExpire = 7 * 24 * time.Hour
)

// DefaultWorkspaceName is the workspace created for every new signup.
const DefaultWorkspaceName = "My Workspace"

// login/signup throttle
const (
	AuthRateLimit  = 10
	AuthRateWindow = time.Minute
)
