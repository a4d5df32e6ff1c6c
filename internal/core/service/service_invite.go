package service

import (
	"strings"
	"time"

	"github.com/plinth-io/plinth/internal/core/consts"
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/repo"
	"github.com/plinth-io/plinth/pkg/event"
	"github.com/plinth-io/plinth/pkg/id"
	"gorm.io/gorm"
)

type InviteService struct {
	userRepo   repo.IUserRepository
	inviteRepo repo.IInviteRepository
	guard      *Guard
	bus        *event.Bus
}

func NewInviteService(
	userRepo repo.IUserRepository,
	inviteRepo repo.IInviteRepository,
	guard *Guard,
	bus *event.Bus,
) *InviteService {
	return &InviteService{
		userRepo:   userRepo,
		inviteRepo: inviteRepo,
		guard:      guard,
		bus:        bus,
	}
}

// CreateInvite issues an invite into the caller's current org
// (member:write). The token is an opaque secret for the invitee.
func (is *InviteService) CreateInvite(userId string, req *model.CreateInviteReq) (*model.Invite, error) {
	orgCtx, err := is.guard.RequireOrgPermission(userId, "member:write")
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = model.OrgRoleMember
	}
	if !model.ValidOrgRole(role) {
		return nil, ErrInvalidRole
	}

	invite := &model.Invite{
		InviteId:  id.GetUUIDWithoutDashes(),
		OrgId:     orgCtx.OrgId,
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Role:      role,
		Token:     id.GetUUIDWithoutDashes(),
		ExpiresAt: time.Now().Add(consts.DefaultInviteExpire),
		CreatedBy: userId,
	}
	if err := is.inviteRepo.Create(invite); err != nil {
		return nil, err
	}
	return invite, nil
}

// ListInvites lists the current org's invites (member:read).
func (is *InviteService) ListInvites(userId string) ([]model.Invite, error) {
	orgCtx, err := is.guard.RequireOrgPermission(userId, "member:read")
	if err != nil {
		return nil, err
	}
	return is.inviteRepo.ListByOrg(orgCtx.OrgId)
}

// AcceptInvite redeems a token for the caller. Missing, revoked, consumed
// and expired invites all collapse into ErrInviteInvalid. A caller who is
// already a member joins idempotently: the invite is consumed, the existing
// membership and its role stay untouched.
func (is *InviteService) AcceptInvite(userId, token string) (string, error) {
	if userId == "" {
		return "", ErrUnauthenticated
	}

	invite, err := is.inviteRepo.GetByToken(token)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrInviteInvalid
		}
		return "", err
	}
	if invite.RevokedAt != nil || invite.AcceptedAt != nil {
		return "", ErrInviteInvalid
	}
	if invite.ExpiresAt.Before(time.Now()) {
		return "", ErrInviteInvalid
	}

	joined, err := is.inviteRepo.AcceptWithMembership(invite, userId)
	if err != nil {
		return "", err
	}

	if joined {
		is.userRepo.InvalidateIdentity(userId)
		if is.bus != nil {
			is.bus.Publish(IdentityChangedEvent{UserId: userId})
		}
	}
	return invite.OrgId, nil
}

// RevokeInvite invalidates a pending invite (member:write).
func (is *InviteService) RevokeInvite(userId, inviteId string) error {
	orgCtx, err := is.guard.RequireOrgPermission(userId, "member:write")
	if err != nil {
		return err
	}

	invite, err := is.inviteRepo.GetByInviteId(inviteId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrInviteInvalid
		}
		return err
	}
	if invite.OrgId != orgCtx.OrgId {
		return ErrInviteInvalid
	}
	return is.inviteRepo.Revoke(inviteId)
}
