package service

import (
	"testing"
	"time"

	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inviteEnv(t *testing.T) (*testEnv, *model.Organization) {
	t.Helper()
	env := newTestEnv()
	env.addUser("usr_owner", "owner@test", model.PlatformRoleUser)
	env.addUser("usr_new", "new@test", model.PlatformRoleUser)

	org, err := env.orgService.CreateOrganization("usr_owner", &model.CreateOrgReq{Name: "Acme"})
	require.NoError(t, err)
	return env, org
}

func TestInviteRoundTrip(t *testing.T) {
	env, org := inviteEnv(t)

	invite, err := env.inviteService.CreateInvite("usr_owner", &model.CreateInviteReq{
		Email: "new@test",
		Role:  model.OrgRoleStaff,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, invite.Token)

	orgId, err := env.inviteService.AcceptInvite("usr_new", invite.Token)
	require.NoError(t, err)
	assert.Equal(t, org.OrgId, orgId)

	m, err := env.memberships.GetByOrgAndUser(org.OrgId, "usr_new")
	require.NoError(t, err)
	assert.Equal(t, model.OrgRoleStaff, m.Role)
	assert.Equal(t, model.MemberStatusActive, m.Status)

	// consumed: a second redemption is invalid
	_, err = env.inviteService.AcceptInvite("usr_new", invite.Token)
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestAcceptInviteIdempotentForExistingMember(t *testing.T) {
	env, org := inviteEnv(t)

	require.NoError(t, env.memberships.Create(&model.Membership{
		OrgId: org.OrgId, UserId: "usr_new",
		Role: model.OrgRoleAdmin, Status: model.MemberStatusActive,
	}))

	invite, err := env.inviteService.CreateInvite("usr_owner", &model.CreateInviteReq{
		Email: "new@test",
		Role:  model.OrgRoleMember,
	})
	require.NoError(t, err)

	orgId, err := env.inviteService.AcceptInvite("usr_new", invite.Token)
	require.NoError(t, err)
	assert.Equal(t, org.OrgId, orgId)

	// existing role untouched
	m, _ := env.memberships.GetByOrgAndUser(org.OrgId, "usr_new")
	assert.Equal(t, model.OrgRoleAdmin, m.Role)
}

func TestAcceptInviteExpired(t *testing.T) {
	env, _ := inviteEnv(t)

	invite, err := env.inviteService.CreateInvite("usr_owner", &model.CreateInviteReq{Email: "new@test"})
	require.NoError(t, err)

	env.invites.mu.Lock()
	env.invites.invites[invite.InviteId].ExpiresAt = time.Now().Add(-time.Hour)
	env.invites.mu.Unlock()

	_, err = env.inviteService.AcceptInvite("usr_new", invite.Token)
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestAcceptInviteRevoked(t *testing.T) {
	env, _ := inviteEnv(t)

	invite, err := env.inviteService.CreateInvite("usr_owner", &model.CreateInviteReq{Email: "new@test"})
	require.NoError(t, err)

	require.NoError(t, env.inviteService.RevokeInvite("usr_owner", invite.InviteId))

	_, err = env.inviteService.AcceptInvite("usr_new", invite.Token)
	assert.ErrorIs(t, err, ErrInviteInvalid)
}

func TestAcceptInviteUnknownToken(t *testing.T) {
	env, _ := inviteEnv(t)

	_, err := env.inviteService.AcceptInvite("usr_new", "no-such-token")
	assert.ErrorIs(t, err, ErrInviteInvalid)

	_, err = env.inviteService.AcceptInvite("", "whatever")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestCreateInviteRequiresMemberWrite(t *testing.T) {
	env, org := inviteEnv(t)

	require.NoError(t, env.memberships.Create(&model.Membership{
		OrgId: org.OrgId, UserId: "usr_new",
		Role: model.OrgRoleMember, Status: model.MemberStatusActive,
	}))
	require.NoError(t, env.users.UpdateCurrentOrg("usr_new", org.OrgId))

	_, err := env.inviteService.CreateInvite("usr_new", &model.CreateInviteReq{Email: "x@test"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.inviteService.CreateInvite("usr_owner", &model.CreateInviteReq{
		Email: "x@test", Role: "SUPERUSER",
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestRevokeInviteScopedToOrg(t *testing.T) {
	env, _ := inviteEnv(t)
	env.addUser("usr_other", "other@test", model.PlatformRoleUser)

	_, err := env.orgService.CreateOrganization("usr_other", &model.CreateOrgReq{Name: "Rival"})
	require.NoError(t, err)

	invite, err := env.inviteService.CreateInvite("usr_owner", &model.CreateInviteReq{Email: "x@test"})
	require.NoError(t, err)

	// an owner of another org cannot revoke it
	err = env.inviteService.RevokeInvite("usr_other", invite.InviteId)
	assert.ErrorIs(t, err, ErrInviteInvalid)
}
