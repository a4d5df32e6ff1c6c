package repo

import (
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/pkg/database"
)

type IMembershipRepository interface {
	GetByOrgAndUser(orgId, userId string) (*model.Membership, error)
	ListByUser(userId string) ([]model.Membership, error)
	ListByOrg(orgId string) ([]model.MemberInfo, error)
	Create(m *model.Membership) error
	UpdateRole(orgId, userId, role string) error
	UpdateStatus(orgId, userId, status string) error
	SoftDelete(orgId, userId string) error
	CountActiveOwners(orgId string) (int64, error)
}

type MembershipRepo struct {
	db              database.IDatabase
	membershipModel *model.Membership
}

func NewMembershipRepo(db database.IDatabase) IMembershipRepository {
	return &MembershipRepo{
		db:              db,
		membershipModel: &model.Membership{},
	}
}

func (mr *MembershipRepo) GetByOrgAndUser(orgId, userId string) (*model.Membership, error) {
	m := &model.Membership{}
	err := mr.db.Database().Table(mr.membershipModel.TableName()).
		Where("org_id = ? AND user_id = ?", orgId, userId).
		First(m).Error
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (mr *MembershipRepo) ListByUser(userId string) ([]model.Membership, error) {
	var memberships []model.Membership
	err := mr.db.Database().Table(mr.membershipModel.TableName()).
		Where("user_id = ?", userId).
		Find(&memberships).Error
	return memberships, err
}

// ListByOrg returns the org roster joined with user display fields.
func (mr *MembershipRepo) ListByOrg(orgId string) ([]model.MemberInfo, error) {
	var members []model.MemberInfo
	err := mr.db.Database().Table(mr.membershipModel.TableName()+" AS m").
		Select("m.*, u.email, u.name").
		Joins("JOIN t_user u ON u.user_id = m.user_id").
		Where("m.org_id = ? AND m.deleted_at IS NULL", orgId).
		Find(&members).Error
	return members, err
}

func (mr *MembershipRepo) Create(m *model.Membership) error {
	return mr.db.Database().Create(m).Error
}

func (mr *MembershipRepo) UpdateRole(orgId, userId, role string) error {
	return mr.db.Database().Table(mr.membershipModel.TableName()).
		Where("org_id = ? AND user_id = ?", orgId, userId).
		Update("role", role).Error
}

func (mr *MembershipRepo) UpdateStatus(orgId, userId, status string) error {
	return mr.db.Database().Table(mr.membershipModel.TableName()).
		Where("org_id = ? AND user_id = ?", orgId, userId).
		Update("status", status).Error
}

func (mr *MembershipRepo) SoftDelete(orgId, userId string) error {
	return mr.db.Database().
		Where("org_id = ? AND user_id = ?", orgId, userId).
		Delete(&model.Membership{}).Error
}

func (mr *MembershipRepo) CountActiveOwners(orgId string) (int64, error) {
	var count int64
	err := mr.db.Database().Table(mr.membershipModel.TableName()).
		Where("org_id = ? AND role = ? AND status = ? AND deleted_at IS NULL",
			orgId, model.OrgRoleOwner, model.MemberStatusActive).
		Count(&count).Error
	return count, err
}
