package service

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/plinth-io/plinth/internal/core/model"
	"gorm.io/gorm"
)

// In-memory repositories backing the service tests. They mirror the store
// contracts: record-not-found surfaces as gorm.ErrRecordNotFound, slugs are
// unique, soft-deleted rows disappear from reads.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return errors.New("duplicate email")
		}
	}
	cp := *u
	f.users[u.UserId] = &cp
	return nil
}

func (f *fakeUserRepo) GetByUserId(userId string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) ListUsers(offset, pageSize int) ([]model.User, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, int64(len(out)), nil
}

func (f *fakeUserRepo) UpdateCurrentOrg(userId, orgId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.CurrentOrgId = orgId
	return nil
}

func (f *fakeUserRepo) UpdateRole(userId, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) UpdateAvatar(userId, avatarUrl string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[userId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Avatar = avatarUrl
	return nil
}

func (f *fakeUserRepo) GetCachedIdentity(string) (*model.Identity, bool) { return nil, false }
func (f *fakeUserRepo) CacheIdentity(*model.Identity)                   {}
func (f *fakeUserRepo) InvalidateIdentity(string)                       {}

type fakeOrgRepo struct {
	mu          sync.Mutex
	orgs        map[string]*model.Organization
	users       *fakeUserRepo
	memberships *fakeMembershipRepo
}

func newFakeOrgRepo(users *fakeUserRepo, memberships *fakeMembershipRepo) *fakeOrgRepo {
	return &fakeOrgRepo{
		orgs:        map[string]*model.Organization{},
		users:       users,
		memberships: memberships,
	}
}

func (f *fakeOrgRepo) GetByOrgId(orgId string) (*model.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[orgId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrgRepo) GetBySlug(slug string) (*model.Organization, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orgs {
		if o.Slug == slug {
			cp := *o
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeOrgRepo) ListByUser(userId string) ([]model.Organization, error) {
	memberships, _ := f.memberships.ListByUser(userId)
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Organization
	for _, m := range memberships {
		if o, ok := f.orgs[m.OrgId]; ok {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrgRepo) ListAllWithMemberCounts() ([]model.OrgWithMemberCount, error) {
	f.mu.Lock()
	orgs := make([]model.Organization, 0, len(f.orgs))
	for _, o := range f.orgs {
		orgs = append(orgs, *o)
	}
	f.mu.Unlock()

	var out []model.OrgWithMemberCount
	for _, o := range orgs {
		members, _ := f.memberships.ListByOrg(o.OrgId)
		out = append(out, model.OrgWithMemberCount{
			Organization: o,
			MemberCount:  int64(len(members)),
		})
	}
	return out, nil
}

func (f *fakeOrgRepo) CreateWithOwner(org *model.Organization, userId string) error {
	f.mu.Lock()
	for _, o := range f.orgs {
		if o.Slug == org.Slug {
			f.mu.Unlock()
			return errors.New("duplicate slug")
		}
	}
	cp := *org
	f.orgs[org.OrgId] = &cp
	f.mu.Unlock()

	if err := f.memberships.Create(&model.Membership{
		OrgId:  org.OrgId,
		UserId: userId,
		Role:   model.OrgRoleOwner,
		Status: model.MemberStatusActive,
	}); err != nil {
		return err
	}
	return f.users.UpdateCurrentOrg(userId, org.OrgId)
}

func (f *fakeOrgRepo) UpdateName(orgId, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[orgId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Name = name
	return nil
}

func (f *fakeOrgRepo) UpdateSlug(orgId, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orgs[orgId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.Slug = slug
	return nil
}

func (f *fakeOrgRepo) DeleteWithCascade(orgId string) ([]string, error) {
	f.mu.Lock()
	delete(f.orgs, orgId)
	f.mu.Unlock()

	members, _ := f.memberships.ListByOrg(orgId)
	for _, m := range members {
		_ = f.memberships.SoftDelete(orgId, m.UserId)
	}

	var affected []string
	f.users.mu.Lock()
	var userIds []string
	for uid, u := range f.users.users {
		if u.CurrentOrgId == orgId {
			userIds = append(userIds, uid)
		}
	}
	f.users.mu.Unlock()

	for _, uid := range userIds {
		next := ""
		memberships, _ := f.memberships.ListByUser(uid)
		for _, m := range memberships {
			if m.OrgId != orgId && m.Status == model.MemberStatusActive {
				next = m.OrgId
				break
			}
		}
		_ = f.users.UpdateCurrentOrg(uid, next)
		affected = append(affected, uid)
	}
	return affected, nil
}

type membershipKey struct {
	orgId  string
	userId string
}

type fakeMembershipRepo struct {
	mu          sync.Mutex
	memberships map[membershipKey]*model.Membership
	users       *fakeUserRepo
}

func newFakeMembershipRepo(users *fakeUserRepo) *fakeMembershipRepo {
	return &fakeMembershipRepo{
		memberships: map[membershipKey]*model.Membership{},
		users:       users,
	}
}

func (f *fakeMembershipRepo) GetByOrgAndUser(orgId, userId string) (*model.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey{orgId, userId}]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMembershipRepo) ListByUser(userId string) ([]model.Membership, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Membership
	for _, m := range f.memberships {
		if m.UserId == userId {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) ListByOrg(orgId string) ([]model.MemberInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.MemberInfo
	for _, m := range f.memberships {
		if m.OrgId == orgId {
			info := model.MemberInfo{Membership: *m}
			if u, ok := f.users.users[m.UserId]; ok {
				info.Email = u.Email
				info.Name = u.Name
			}
			out = append(out, info)
		}
	}
	return out, nil
}

func (f *fakeMembershipRepo) Create(m *model.Membership) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := membershipKey{m.OrgId, m.UserId}
	if _, ok := f.memberships[key]; ok {
		return errors.New("duplicate membership")
	}
	cp := *m
	f.memberships[key] = &cp
	return nil
}

func (f *fakeMembershipRepo) UpdateRole(orgId, userId, role string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey{orgId, userId}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Role = role
	return nil
}

func (f *fakeMembershipRepo) UpdateStatus(orgId, userId, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.memberships[membershipKey{orgId, userId}]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	m.Status = status
	return nil
}

func (f *fakeMembershipRepo) SoftDelete(orgId, userId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.memberships, membershipKey{orgId, userId})
	return nil
}

func (f *fakeMembershipRepo) CountActiveOwners(orgId string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, m := range f.memberships {
		if m.OrgId == orgId && m.Role == model.OrgRoleOwner && m.Status == model.MemberStatusActive {
			count++
		}
	}
	return count, nil
}

type fakeInviteRepo struct {
	mu          sync.Mutex
	invites     map[string]*model.Invite // by inviteId
	memberships *fakeMembershipRepo
}

func newFakeInviteRepo(memberships *fakeMembershipRepo) *fakeInviteRepo {
	return &fakeInviteRepo{
		invites:     map[string]*model.Invite{},
		memberships: memberships,
	}
}

func (f *fakeInviteRepo) Create(invite *model.Invite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *invite
	f.invites[invite.InviteId] = &cp
	return nil
}

func (f *fakeInviteRepo) GetByToken(token string) (*model.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.invites {
		if inv.Token == token {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeInviteRepo) GetByInviteId(inviteId string) (*model.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[inviteId]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInviteRepo) ListByOrg(orgId string) ([]model.Invite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Invite
	for _, inv := range f.invites {
		if inv.OrgId == orgId {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (f *fakeInviteRepo) Revoke(inviteId string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[inviteId]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	inv.RevokedAt = &now
	return nil
}

func (f *fakeInviteRepo) AcceptWithMembership(invite *model.Invite, userId string) (bool, error) {
	joined := false
	if _, err := f.memberships.GetByOrgAndUser(invite.OrgId, userId); err == gorm.ErrRecordNotFound {
		if err := f.memberships.Create(&model.Membership{
			OrgId:  invite.OrgId,
			UserId: userId,
			Role:   invite.Role,
			Status: model.MemberStatusActive,
		}); err != nil {
			return false, err
		}
		joined = true
	} else if err != nil {
		return false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invites[invite.InviteId]
	if !ok {
		return false, gorm.ErrRecordNotFound
	}
	now := time.Now()
	inv.AcceptedBy = userId
	inv.AcceptedAt = &now
	return joined, nil
}

// testEnv bundles the fakes with fully wired services.
type testEnv struct {
	users       *fakeUserRepo
	orgs        *fakeOrgRepo
	memberships *fakeMembershipRepo
	invites     *fakeInviteRepo

	guard         *Guard
	orgService    *OrgService
	inviteService *InviteService
	authService   *AuthService
}

func newTestEnv() *testEnv {
	users := newFakeUserRepo()
	memberships := newFakeMembershipRepo(users)
	orgs := newFakeOrgRepo(users, memberships)
	invites := newFakeInviteRepo(memberships)

	guard := NewGuard(users, orgs, memberships)
	orgService := NewOrgService(users, orgs, memberships, guard, nil)
	inviteService := NewInviteService(users, invites, guard, nil)
	authService := NewAuthService(users, memberships, orgService, nil)

	return &testEnv{
		users:         users,
		orgs:          orgs,
		memberships:   memberships,
		invites:       invites,
		guard:         guard,
		orgService:    orgService,
		inviteService: inviteService,
		authService:   authService,
	}
}

// addUser seeds a user without going through signup.
func (e *testEnv) addUser(userId, email, role string) *model.User {
	u := &model.User{
		UserId: userId,
		Email:  email,
		Role:   role,
	}
	_ = e.users.CreateUser(u)
	return u
}
