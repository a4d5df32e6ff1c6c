package service

import (
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/repo"
	"gorm.io/gorm"
)

// OrgContext is the tenancy resolved for one request.
type OrgContext struct {
	UserId     string
	OrgId      string
	User       *model.User
	Org        *model.Organization
	Membership *model.Membership
}

// Guard answers every per-request authorization question from fresh store
// reads. Token claims never reach it.
type Guard struct {
	userRepo       repo.IUserRepository
	orgRepo        repo.IOrgRepository
	membershipRepo repo.IMembershipRepository
}

func NewGuard(
	userRepo repo.IUserRepository,
	orgRepo repo.IOrgRepository,
	membershipRepo repo.IMembershipRepository,
) *Guard {
	return &Guard{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
	}
}

// RequireOrgContext resolves the caller's current org and active
// membership. The order is fixed: identity, current org from the fresh user
// row, org and membership existence, membership status.
func (g *Guard) RequireOrgContext(userId string) (*OrgContext, error) {
	if userId == "" {
		return nil, ErrUnauthenticated
	}

	user, err := g.userRepo.GetByUserId(userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if user.CurrentOrgId == "" {
		return nil, ErrNoOrgSelected
	}

	org, err := g.orgRepo.GetByOrgId(user.CurrentOrgId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccessDenied
		}
		return nil, err
	}

	membership, err := g.membershipRepo.GetByOrgAndUser(user.CurrentOrgId, userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrAccessDenied
		}
		return nil, err
	}
	if membership.Status != model.MemberStatusActive {
		return nil, ErrAccessDenied
	}

	return &OrgContext{
		UserId:     userId,
		OrgId:      user.CurrentOrgId,
		User:       user,
		Org:        org,
		Membership: membership,
	}, nil
}

// RequireOrgPermission is RequireOrgContext plus a matrix check.
func (g *Guard) RequireOrgPermission(userId, permission string) (*OrgContext, error) {
	orgCtx, err := g.RequireOrgContext(userId)
	if err != nil {
		return nil, err
	}
	if !model.HasPermission(orgCtx.Membership.Role, permission) {
		return nil, ErrForbidden
	}
	return orgCtx, nil
}

// RequireAdmin gates the platform-admin surface on the global user role.
func (g *Guard) RequireAdmin(userId string) (*model.User, error) {
	if userId == "" {
		return nil, ErrUnauthenticated
	}
	user, err := g.userRepo.GetByUserId(userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if user.Role != model.PlatformRoleAdmin {
		return nil, ErrForbidden
	}
	return user, nil
}
