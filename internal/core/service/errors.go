package service

import "github.com/pkg/errors"

// Authorization failures are distinct so transports can map them to the
// right status code without string matching.
var (
	// ErrUnauthenticated no valid session
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrNoOrgSelected the user has no current organization
	ErrNoOrgSelected = errors.New("no organization selected")

	// ErrAccessDenied no active membership in the current organization
	ErrAccessDenied = errors.New("organization access denied")

	// ErrForbidden membership exists but the role lacks the permission
	ErrForbidden = errors.New("forbidden")

	// ErrInviteInvalid covers missing, revoked, consumed and expired
	// invites; callers cannot distinguish which, on purpose
	ErrInviteInvalid = errors.New("invite is invalid")

	// ErrConfigurationError the server is missing required configuration
	ErrConfigurationError = errors.New("server misconfiguration")
)

var (
	ErrUserExists            = errors.New("user already exists")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailPasswordRequired = errors.New("email and password are required")
	ErrUserNotFound          = errors.New("user not found")
	ErrOrgNotFound           = errors.New("organization not found")
	ErrOrgNameRequired       = errors.New("organization name is required")
	ErrMemberNotFound        = errors.New("member not found")
	ErrLastOwner             = errors.New("an organization must keep at least one owner")
	ErrInvalidRole           = errors.New("invalid role")
)
