package service

import (
	"strings"

	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/repo"
	"github.com/plinth-io/plinth/pkg/event"
	"github.com/plinth-io/plinth/pkg/http"
	"github.com/plinth-io/plinth/pkg/http/jwt"
	"github.com/plinth-io/plinth/pkg/id"
	"github.com/plinth-io/plinth/pkg/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService owns signup, login and the identity snapshot. Session tokens
// carry identity only; everything permission-shaped is recomputed from the
// store on each read.
type AuthService struct {
	userRepo       repo.IUserRepository
	orgService     *OrgService
	membershipRepo repo.IMembershipRepository
	bus            *event.Bus
}

func NewAuthService(
	userRepo repo.IUserRepository,
	membershipRepo repo.IMembershipRepository,
	orgService *OrgService,
	bus *event.Bus,
) *AuthService {
	return &AuthService{
		userRepo:       userRepo,
		orgService:     orgService,
		membershipRepo: membershipRepo,
		bus:            bus,
	}
}

// Signup creates the user, hashes the password, provisions the default
// workspace, and returns a signed session token.
func (as *AuthService) Signup(req *model.SignupReq, auth http.Auth) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", ErrEmailPasswordRequired
	}

	if _, err := as.userRepo.GetByEmail(email); err == nil {
		return nil, "", ErrUserExists
	} else if err != gorm.ErrRecordNotFound {
		return nil, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}

	user := &model.User{
		UserId:   id.GetUUIDWithoutDashes(),
		Email:    email,
		Name:     req.Name,
		Password: string(hash),
		Role:     model.PlatformRoleUser,
	}
	if err := as.userRepo.CreateUser(user); err != nil {
		return nil, "", err
	}

	// every account starts with a workspace; a failure here leaves a
	// usable account that can create one later
	if org, err := as.orgService.CreateDefaultWorkspace(user.UserId); err != nil {
		log.Errorw("failed to create default workspace", "userId", user.UserId, "error", err)
	} else {
		user.CurrentOrgId = org.OrgId
	}

	token, err := jwt.GenSessionToken(user.UserId, user.Role, auth.SecretKey, auth.SessionExpire)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login verifies credentials and returns a signed session token. Missing
// user and wrong password collapse into one error.
func (as *AuthService) Login(req *model.LoginReq, auth http.Auth) (*model.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := as.userRepo.GetByEmail(email)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := jwt.GenSessionToken(user.UserId, user.Role, auth.SecretKey, auth.SessionExpire)
	if err != nil {
		return nil, "", err
	}

	as.userRepo.InvalidateIdentity(user.UserId)
	as.publishIdentityChanged(user.UserId)
	return user, token, nil
}

// Logout drops the cached identity. The cookie is cleared by the transport.
func (as *AuthService) Logout(userId string) {
	as.userRepo.InvalidateIdentity(userId)
}

// Identity builds the full identity snapshot for userId, org role and
// permissions included, consulting the cache first.
func (as *AuthService) Identity(userId string) (*model.Identity, error) {
	if cached, ok := as.userRepo.GetCachedIdentity(userId); ok {
		return cached, nil
	}

	user, err := as.userRepo.GetByUserId(userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	identity := &model.Identity{
		UserId:       user.UserId,
		Email:        user.Email,
		Name:         user.Name,
		Role:         user.Role,
		Avatar:       user.Avatar,
		CurrentOrgId: user.CurrentOrgId,
	}

	if user.CurrentOrgId != "" {
		membership, err := as.membershipRepo.GetByOrgAndUser(user.CurrentOrgId, user.UserId)
		if err == nil && membership.Status == model.MemberStatusActive {
			identity.OrgRole = membership.Role
			identity.Permissions = model.PermissionsForRole(membership.Role)
		} else if err != nil && err != gorm.ErrRecordNotFound {
			return nil, err
		}
	}

	as.userRepo.CacheIdentity(identity)
	return identity, nil
}

// UpdateAvatar changes the user's avatar and notifies live sessions.
func (as *AuthService) UpdateAvatar(userId, avatarUrl string) error {
	if err := as.userRepo.UpdateAvatar(userId, avatarUrl); err != nil {
		return err
	}
	as.userRepo.InvalidateIdentity(userId)
	as.publishIdentityChanged(userId)
	return nil
}

func (as *AuthService) publishIdentityChanged(userId string) {
	if as.bus != nil {
		as.bus.Publish(IdentityChangedEvent{UserId: userId})
	}
}
