package service

import (
	"strings"
	"unicode"

	"github.com/plinth-io/plinth/internal/core/consts"
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/internal/core/repo"
	"github.com/plinth-io/plinth/pkg/event"
	"github.com/plinth-io/plinth/pkg/id"
	"github.com/plinth-io/plinth/pkg/log"
	"gorm.io/gorm"
)

const slugCreateAttempts = 3

type OrgService struct {
	userRepo       repo.IUserRepository
	orgRepo        repo.IOrgRepository
	membershipRepo repo.IMembershipRepository
	guard          *Guard
	bus            *event.Bus
}

func NewOrgService(
	userRepo repo.IUserRepository,
	orgRepo repo.IOrgRepository,
	membershipRepo repo.IMembershipRepository,
	guard *Guard,
	bus *event.Bus,
) *OrgService {
	return &OrgService{
		userRepo:       userRepo,
		orgRepo:        orgRepo,
		membershipRepo: membershipRepo,
		guard:          guard,
		bus:            bus,
	}
}

// ToSlug normalizes a name into a URL slug: lowercase, runs of
// non-alphanumerics collapse to single dashes, edges trimmed.
func ToSlug(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastDash = false
		} else if !lastDash {
			b.WriteByte('-')
			lastDash = true
		}
	}
	return strings.TrimRight(b.String(), "-")
}

// CreateOrganization creates an org owned by userId. The slug derives from
// the requested slug or name; a collision gets a random suffix. Uniqueness
// is decided by the database at commit, so a lost race retries with a fresh
// suffix rather than failing the request.
func (os *OrgService) CreateOrganization(userId string, req *model.CreateOrgReq) (*model.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrOrgNameRequired
	}

	baseSlug := ToSlug(req.Slug)
	if baseSlug == "" {
		baseSlug = ToSlug(name)
	}
	if baseSlug == "" {
		baseSlug = id.ShortId()
	}

	slug := baseSlug
	if _, err := os.orgRepo.GetBySlug(baseSlug); err == nil {
		slug = baseSlug + "-" + id.ShortId()
	} else if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	var org *model.Organization
	for attempt := 0; attempt < slugCreateAttempts; attempt++ {
		org = &model.Organization{
			OrgId:     id.GetUUIDWithoutDashes(),
			Name:      name,
			Slug:      slug,
			CreatedBy: userId,
		}
		err := os.orgRepo.CreateWithOwner(org, userId)
		if err == nil {
			break
		}
		if attempt == slugCreateAttempts-1 {
			return nil, err
		}
		// lost the slug race; retry with a new suffix
		log.Debugw("org create retry", "slug", slug, "error", err)
		slug = baseSlug + "-" + id.ShortId()
	}

	os.userRepo.InvalidateIdentity(userId)
	os.publishIdentityChanged(userId)
	return org, nil
}

// CreateDefaultWorkspace provisions the workspace every signup starts with.
func (os *OrgService) CreateDefaultWorkspace(userId string) (*model.Organization, error) {
	return os.CreateOrganization(userId, &model.CreateOrgReq{Name: consts.DefaultWorkspaceName})
}

// SwitchCurrentOrg moves the caller's current org after verifying an
// active membership in the target.
func (os *OrgService) SwitchCurrentOrg(userId, orgId string) error {
	membership, err := os.membershipRepo.GetByOrgAndUser(orgId, userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrAccessDenied
		}
		return err
	}
	if membership.Status != model.MemberStatusActive {
		return ErrAccessDenied
	}

	if err := os.userRepo.UpdateCurrentOrg(userId, orgId); err != nil {
		return err
	}
	os.userRepo.InvalidateIdentity(userId)
	os.publishIdentityChanged(userId)
	return nil
}

// ListUserOrgs lists the orgs the user belongs to.
func (os *OrgService) ListUserOrgs(userId string) ([]model.Organization, error) {
	return os.orgRepo.ListByUser(userId)
}

// UpdateCurrentOrg renames or reslugs the caller's current org (org:write).
func (os *OrgService) UpdateCurrentOrg(userId string, req *model.UpdateOrgReq) (*model.Organization, error) {
	orgCtx, err := os.guard.RequireOrgPermission(userId, "org:write")
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		if err := os.orgRepo.UpdateName(orgCtx.OrgId, name); err != nil {
			return nil, err
		}
	}
	if slug := ToSlug(req.Slug); slug != "" {
		if err := os.orgRepo.UpdateSlug(orgCtx.OrgId, slug); err != nil {
			return nil, err
		}
	}
	return os.orgRepo.GetByOrgId(orgCtx.OrgId)
}

// DeleteCurrentOrg soft-deletes the caller's current org with the full
// cascade. OWNER only, regardless of the permission matrix.
func (os *OrgService) DeleteCurrentOrg(userId string) error {
	orgCtx, err := os.guard.RequireOrgContext(userId)
	if err != nil {
		return err
	}
	if orgCtx.Membership.Role != model.OrgRoleOwner {
		return ErrForbidden
	}
	return os.deleteCascade(orgCtx.OrgId)
}

// DeleteOrgAdmin is the platform-admin delete of any org.
func (os *OrgService) DeleteOrgAdmin(adminUserId, orgId string) error {
	if _, err := os.guard.RequireAdmin(adminUserId); err != nil {
		return err
	}
	if _, err := os.orgRepo.GetByOrgId(orgId); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrOrgNotFound
		}
		return err
	}
	return os.deleteCascade(orgId)
}

func (os *OrgService) deleteCascade(orgId string) error {
	affected, err := os.orgRepo.DeleteWithCascade(orgId)
	if err != nil {
		return err
	}
	for _, uid := range affected {
		os.userRepo.InvalidateIdentity(uid)
		os.publishIdentityChanged(uid)
	}
	return nil
}

// ListOrgMembers returns the current org's roster (member:read).
func (os *OrgService) ListOrgMembers(userId string) ([]model.MemberInfo, error) {
	orgCtx, err := os.guard.RequireOrgPermission(userId, "member:read")
	if err != nil {
		return nil, err
	}
	return os.membershipRepo.ListByOrg(orgCtx.OrgId)
}

// UpdateMember changes a member's role or status (member:write). Demoting
// or suspending the last active owner is refused.
func (os *OrgService) UpdateMember(userId, targetUserId string, req *model.UpdateMemberReq) error {
	orgCtx, err := os.guard.RequireOrgPermission(userId, "member:write")
	if err != nil {
		return err
	}

	target, err := os.membershipRepo.GetByOrgAndUser(orgCtx.OrgId, targetUserId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrMemberNotFound
		}
		return err
	}

	if req.Role != "" {
		if !model.ValidOrgRole(req.Role) {
			return ErrInvalidRole
		}
		if target.Role == model.OrgRoleOwner && req.Role != model.OrgRoleOwner {
			if err := os.ensureNotLastOwner(orgCtx.OrgId); err != nil {
				return err
			}
		}
		if err := os.membershipRepo.UpdateRole(orgCtx.OrgId, targetUserId, req.Role); err != nil {
			return err
		}
	}

	if req.Status != "" {
		if req.Status != model.MemberStatusActive && req.Status != model.MemberStatusSuspended {
			return ErrInvalidRole
		}
		if target.Role == model.OrgRoleOwner && req.Status != model.MemberStatusActive {
			if err := os.ensureNotLastOwner(orgCtx.OrgId); err != nil {
				return err
			}
		}
		if err := os.membershipRepo.UpdateStatus(orgCtx.OrgId, targetUserId, req.Status); err != nil {
			return err
		}
	}

	os.userRepo.InvalidateIdentity(targetUserId)
	os.publishIdentityChanged(targetUserId)
	return nil
}

// ListAllOrgs is the platform-admin listing with member counts.
func (os *OrgService) ListAllOrgs(adminUserId string) ([]model.OrgWithMemberCount, error) {
	if _, err := os.guard.RequireAdmin(adminUserId); err != nil {
		return nil, err
	}
	return os.orgRepo.ListAllWithMemberCounts()
}

// UpdateUserRole changes a user's platform role (global ADMIN only).
func (os *OrgService) UpdateUserRole(adminUserId, targetUserId, role string) error {
	if _, err := os.guard.RequireAdmin(adminUserId); err != nil {
		return err
	}
	if role != model.PlatformRoleUser && role != model.PlatformRoleAdmin {
		return ErrInvalidRole
	}
	if _, err := os.userRepo.GetByUserId(targetUserId); err != nil {
		if err == gorm.ErrRecordNotFound {
			return ErrUserNotFound
		}
		return err
	}
	if err := os.userRepo.UpdateRole(targetUserId, role); err != nil {
		return err
	}
	os.userRepo.InvalidateIdentity(targetUserId)
	os.publishIdentityChanged(targetUserId)
	return nil
}

func (os *OrgService) ensureNotLastOwner(orgId string) error {
	owners, err := os.membershipRepo.CountActiveOwners(orgId)
	if err != nil {
		return err
	}
	if owners <= 1 {
		return ErrLastOwner
	}
	return nil
}

func (os *OrgService) publishIdentityChanged(userId string) {
	if os.bus != nil {
		os.bus.Publish(IdentityChangedEvent{UserId: userId})
	}
}
