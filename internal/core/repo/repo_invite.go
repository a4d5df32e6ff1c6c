package repo

import (
	"time"

	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/pkg/database"
	"gorm.io/gorm"
)

type IInviteRepository interface {
	Create(invite *model.Invite) error
	GetByToken(token string) (*model.Invite, error)
	GetByInviteId(inviteId string) (*model.Invite, error)
	ListByOrg(orgId string) ([]model.Invite, error)
	Revoke(inviteId string) error
	AcceptWithMembership(invite *model.Invite, userId string) (joined bool, err error)
}

type InviteRepo struct {
	db          database.IDatabase
	inviteModel *model.Invite
}

func NewInviteRepo(db database.IDatabase) IInviteRepository {
	return &InviteRepo{
		db:          db,
		inviteModel: &model.Invite{},
	}
}

func (ir *InviteRepo) Create(invite *model.Invite) error {
	return ir.db.Database().Create(invite).Error
}

func (ir *InviteRepo) GetByToken(token string) (*model.Invite, error) {
	invite := &model.Invite{}
	err := ir.db.Database().Table(ir.inviteModel.TableName()).
		Where("token = ?", token).First(invite).Error
	if err != nil {
		return nil, err
	}
	return invite, nil
}

func (ir *InviteRepo) GetByInviteId(inviteId string) (*model.Invite, error) {
	invite := &model.Invite{}
	err := ir.db.Database().Table(ir.inviteModel.TableName()).
		Where("invite_id = ?", inviteId).First(invite).Error
	if err != nil {
		return nil, err
	}
	return invite, nil
}

func (ir *InviteRepo) ListByOrg(orgId string) ([]model.Invite, error) {
	var invites []model.Invite
	err := ir.db.Database().Table(ir.inviteModel.TableName()).
		Where("org_id = ?", orgId).
		Order("id DESC").
		Find(&invites).Error
	return invites, err
}

func (ir *InviteRepo) Revoke(inviteId string) error {
	return ir.db.Database().Table(ir.inviteModel.TableName()).
		Where("invite_id = ?", inviteId).
		Update("revoked_at", time.Now()).Error
}

// AcceptWithMembership marks the invite accepted and creates the membership
// unless a live one already exists, in one transaction. joined reports
// whether a membership row was created.
func (ir *InviteRepo) AcceptWithMembership(invite *model.Invite, userId string) (bool, error) {
	joined := false
	err := ir.db.Database().Transaction(func(tx *gorm.DB) error {
		var existing model.Membership
		err := tx.Table((&model.Membership{}).TableName()).
			Where("org_id = ? AND user_id = ?", invite.OrgId, userId).
			First(&existing).Error
		if err == gorm.ErrRecordNotFound {
			membership := &model.Membership{
				OrgId:  invite.OrgId,
				UserId: userId,
				Role:   invite.Role,
				Status: model.MemberStatusActive,
			}
			if err := tx.Create(membership).Error; err != nil {
				return err
			}
			joined = true
		} else if err != nil {
			return err
		}

		now := time.Now()
		return tx.Table(ir.inviteModel.TableName()).
			Where("invite_id = ?", invite.InviteId).
			Updates(map[string]any{
				"accepted_by": userId,
				"accepted_at": now,
			}).Error
	})
	if err != nil {
		return false, err
	}
	return joined, nil
}
