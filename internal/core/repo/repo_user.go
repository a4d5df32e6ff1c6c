package repo

import (
	"context"

	"github.com/bytedance/sonic"
	"github.com/plinth-io/plinth/internal/core/consts"
	"github.com/plinth-io/plinth/internal/core/model"
	"github.com/plinth-io/plinth/pkg/cache"
	"github.com/plinth-io/plinth/pkg/database"
	"github.com/plinth-io/plinth/pkg/log"
)

type IUserRepository interface {
	CreateUser(u *model.User) error
	GetByUserId(userId string) (*model.User, error)
	GetByEmail(email string) (*model.User, error)
	ListUsers(offset, pageSize int) ([]model.User, int64, error)
	UpdateCurrentOrg(userId, orgId string) error
	UpdateRole(userId, role string) error
	UpdateAvatar(userId, avatarUrl string) error

	GetCachedIdentity(userId string) (*model.Identity, bool)
	CacheIdentity(identity *model.Identity)
	InvalidateIdentity(userId string)
}

type UserRepo struct {
	db        database.IDatabase
	cache     cache.ICache
	userModel *model.User
}

func NewUserRepo(db database.IDatabase, cache cache.ICache) IUserRepository {
	return &UserRepo{
		db:        db,
		cache:     cache,
		userModel: &model.User{},
	}
}

func (ur *UserRepo) CreateUser(u *model.User) error {
	return ur.db.Database().Create(u).Error
}

func (ur *UserRepo) GetByUserId(userId string) (*model.User, error) {
	u := &model.User{}
	err := ur.db.Database().Table(ur.userModel.TableName()).
		Where("user_id = ?", userId).First(u).Error
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (ur *UserRepo) GetByEmail(email string) (*model.User, error) {
	u := &model.User{}
	err := ur.db.Database().Table(ur.userModel.TableName()).
		Where("email = ?", email).First(u).Error
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (ur *UserRepo) ListUsers(offset, pageSize int) ([]model.User, int64, error) {
	var users []model.User
	var total int64

	tx := ur.db.Database().Table(ur.userModel.TableName())
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := tx.Order("id DESC").Offset(offset).Limit(pageSize).Find(&users).Error
	return users, total, err
}

// UpdateCurrentOrg sets the user's current org; an empty orgId clears it.
func (ur *UserRepo) UpdateCurrentOrg(userId, orgId string) error {
	return ur.db.Database().Table(ur.userModel.TableName()).
		Where("user_id = ?", userId).
		Update("current_org_id", orgId).Error
}

func (ur *UserRepo) UpdateRole(userId, role string) error {
	return ur.db.Database().Table(ur.userModel.TableName()).
		Where("user_id = ?", userId).
		Update("role", role).Error
}

func (ur *UserRepo) UpdateAvatar(userId, avatarUrl string) error {
	return ur.db.Database().Table(ur.userModel.TableName()).
		Where("user_id = ?", userId).
		Update("avatar", avatarUrl).Error
}

// GetCachedIdentity reads the identity snapshot from Redis. A miss or a
// decode failure just means the caller rebuilds from the database.
func (ur *UserRepo) GetCachedIdentity(userId string) (*model.Identity, bool) {
	if ur.cache == nil {
		return nil, false
	}
	raw, err := ur.cache.Get(context.Background(), consts.UserIdentityKey+userId).Result()
	if err != nil || raw == "" {
		return nil, false
	}
	identity := &model.Identity{}
	if err := sonic.UnmarshalString(raw, identity); err != nil {
		log.Errorw("failed to unmarshal cached identity", "userId", userId, "error", err)
		return nil, false
	}
	return identity, true
}

func (ur *UserRepo) CacheIdentity(identity *model.Identity) {
	if ur.cache == nil || identity == nil {
		return
	}
	raw, err := sonic.MarshalString(identity)
	if err != nil {
		log.Errorw("failed to marshal identity", "userId", identity.UserId, "error", err)
		return
	}
	key := consts.UserIdentityKey + identity.UserId
	if err := ur.cache.Set(context.Background(), key, raw, consts.IdentityCacheTTL).Err(); err != nil {
		log.Errorw("failed to cache identity", "userId", identity.UserId, "error", err)
	}
}

func (ur *UserRepo) InvalidateIdentity(userId string) {
	if ur.cache == nil {
		return
	}
	if err := ur.cache.Del(context.Background(), consts.UserIdentityKey+userId).Err(); err != nil {
		log.Errorw("failed to invalidate identity cache", "userId", userId, "error", err)
	}
}
