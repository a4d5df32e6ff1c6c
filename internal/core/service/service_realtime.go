package service

import (
	"github.com/plinth-io/plinth/internal/core/repo"
	"github.com/plinth-io/plinth/pkg/realtime"
	"gorm.io/gorm"
)

// RealtimeService exchanges a session for a short-lived realtime credential.
// The claims are a fresh snapshot of the user row at mint time, never an
// echo of the session token.
type RealtimeService struct {
	userRepo repo.IUserRepository
	issuer   *realtime.Issuer
}

func NewRealtimeService(userRepo repo.IUserRepository, issuer *realtime.Issuer) *RealtimeService {
	return &RealtimeService{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// MintToken re-reads the user and signs a realtime token carrying the
// current org at this moment. Switching orgs and re-exchanging yields a
// token bound to the new org.
func (rs *RealtimeService) MintToken(userId string) (string, error) {
	user, err := rs.userRepo.GetByUserId(userId)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", ErrUserNotFound
		}
		return "", err
	}
	return rs.issuer.Mint(user.UserId, user.Email, user.Name, user.Role, user.CurrentOrgId)
}
