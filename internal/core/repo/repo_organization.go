package repo

import (
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/pkg/database"
	"gorm.io/gorm"
)

type IOrgRepository interface {
	GetByOrgId(orgId string) (*model.Organization, error)
	GetBySlug(slug string) (*model.Organization, error)
	ListByUser(userId string) ([]model.Organization, error)
	ListAllWithMemberCounts() ([]model.OrgWithMemberCount, error)
	CreateWithOwner(org *model.Organization, userId string) error
	UpdateName(orgId, name string) error
	UpdateSlug(orgId, slug string) error
	DeleteWithCascade(orgId string) ([]string, error)
}

type OrgRepo struct {
	db       database.IDatabase
	orgModel *model.Organization
}

func NewOrgRepo(db database.IDatabase) IOrgRepository {
	return &OrgRepo{
		db:       db,
		orgModel: &model.Organization{},
	}
}

func (or *OrgRepo) GetByOrgId(orgId string) (*model.Organization, error) {
	org := &model.Organization{}
	err := or.db.Database().Table(or.orgModel.TableName()).
		Where("org_id = ?", orgId).First(org).Error
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (or *OrgRepo) GetBySlug(slug string) (*model.Organization, error) {
	org := &model.Organization{}
	err := or.db.Database().Table(or.orgModel.TableName()).
		Where("slug = ?", slug).First(org).Error
	if err != nil {
		return nil, err
	}
	return org, nil
}

func (or *OrgRepo) ListByUser(userId string) ([]model.Organization, error) {
	var orgs []model.Organization
	err := or.db.Database().Table(or.orgModel.TableName()+" AS o").
		Joins("JOIN t_membership m ON m.org_id = o.org_id").
		Where("m.user_id = ? AND m.deleted_at IS NULL AND o.deleted_at IS NULL", userId).
		Select("o.*").
		Find(&orgs).Error
	return orgs, err
}

func (or *OrgRepo) ListAllWithMemberCounts() ([]model.OrgWithMemberCount, error) {
	var orgs []model.OrgWithMemberCount
	err := or.db.Database().Table(or.orgModel.TableName()+" AS o").
		Select("o.*, COUNT(m.id) AS member_count").
		Joins("LEFT JOIN t_membership m ON m.org_id = o.org_id AND m.deleted_at IS NULL").
		Where("o.deleted_at IS NULL").
		Group("o.id").
		Find(&orgs).Error
	return orgs, err
}

// CreateWithOwner atomically creates the org, its OWNER membership, and
// points the creator's current org at it. A slug collision surfaces as a
// unique-index violation for the caller to retry with a new slug.
func (or *OrgRepo) CreateWithOwner(org *model.Organization, userId string) error {
	return or.db.Database().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		membership := &model.Membership{
			OrgId:  org.OrgId,
			UserId: userId,
			Role:   model.OrgRoleOwner,
			Status: model.MemberStatusActive,
		}
		if err := tx.Create(membership).Error; err != nil {
			return err
		}
		return tx.Table((&model.User{}).TableName()).
			Where("user_id = ?", userId).
			Update("current_org_id", org.OrgId).Error
	})
}

func (or *OrgRepo) UpdateName(orgId, name string) error {
	return or.db.Database().Table(or.orgModel.TableName()).
		Where("org_id = ?", orgId).
		Update("name", name).Error
}

func (or *OrgRepo) UpdateSlug(orgId, slug string) error {
	return or.db.Database().Table(or.orgModel.TableName()).
		Where("org_id = ?", orgId).
		Update("slug", slug).Error
}

// DeleteWithCascade soft-deletes the org and all of its memberships, then
// repoints every user whose current org was the deleted one at another
// active membership, or clears it. Returns the affected user ids so callers
// can invalidate caches and notify live sessions.
func (or *OrgRepo) DeleteWithCascade(orgId string) ([]string, error) {
	var affected []string

	err := or.db.Database().Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("org_id = ?", orgId).
			Delete(&model.Organization{}).Error; err != nil {
			return err
		}
		if err := tx.Where("org_id = ?", orgId).
			Delete(&model.Membership{}).Error; err != nil {
			return err
		}

		var users []model.User
		if err := tx.Table((&model.User{}).TableName()).
			Where("current_org_id = ?", orgId).
			Find(&users).Error; err != nil {
			return err
		}

		for _, u := range users {
			var next model.Membership
			nextOrgId := ""
			err := tx.Table((&model.Membership{}).TableName()).
				Where("user_id = ? AND org_id <> ? AND status = ? AND deleted_at IS NULL",
					u.UserId, orgId, model.MemberStatusActive).
				First(&next).Error
			if err == nil {
				nextOrgId = next.OrgId
			} else if err != gorm.ErrRecordNotFound {
				return err
			}

			if err := tx.Table((&model.User{}).TableName()).
				Where("user_id = ?", u.UserId).
				Update("current_org_id", nextOrgId).Error; err != nil {
				return err
			}
			affected = append(affected, u.UserId)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return affected, nil
}
