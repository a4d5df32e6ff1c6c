package model

import "time"

// Invite offers membership in an organization to an email address. The
// token is the bearer secret handed to the invitee; acceptance is recorded
// in place rather than deleting the row.
type Invite struct {
	BaseModel
	InviteId   string     `gorm:"column:invite_id;uniqueIndex" json:"inviteId"`
	OrgId      string     `gorm:"column:org_id;index" json:"orgId"`
	Email      string     `gorm:"column:email" json:"email"`
	Role       string     `gorm:"column:role" json:"role"`
	Token      string     `gorm:"column:token;uniqueIndex" json:"-"`
	ExpiresAt  time.Time  `gorm:"column:expires_at" json:"expiresAt"`
	CreatedBy  string     `gorm:"column:created_by" json:"createdBy"`
	AcceptedBy string     `gorm:"column:accepted_by" json:"acceptedBy,omitempty"`
	AcceptedAt *time.Time `gorm:"column:accepted_at" json:"acceptedAt,omitempty"`
	RevokedAt  *time.Time `gorm:"column:revoked_at" json:"revokedAt,omitempty"`
}

func (Invite) TableName() string {
	return "t_invite"
}

// CreateInviteReq create invite request body
type CreateInviteReq struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AcceptInviteReq accept invite request body
type AcceptInviteReq struct {
	Token string `json:"token"`
}
