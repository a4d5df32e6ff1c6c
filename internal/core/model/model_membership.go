package model

// Membership links a user to an organization with an org role. The pair
// (org_id, user_id) is unique among live rows; soft-deleted rows stay for
// audit.
type Membership struct {
	BaseModel
	OrgId  string `gorm:"column:org_id;index:idx_membership_org_user,unique" json:"orgId"`
	UserId string `gorm:"column:user_id;index:idx_membership_org_user,unique;index" json:"userId"`
	Role   string `gorm:"column:role" json:"role"`
	Status string `gorm:"column:status" json:"status"`
}

func (Membership) TableName() string {
	return "t_membership"
}

// org roles
const (
	OrgRoleOwner  = "OWNER"
	OrgRoleAdmin  = "ADMIN"
	OrgRoleStaff  = "STAFF"
	OrgRoleMember = "MEMBER"
)

// membership status
const (
	MemberStatusActive    = "ACTIVE"
	MemberStatusSuspended = "SUSPENDED"
)

// ValidOrgRole reports whether role is one of the four org roles.
func ValidOrgRole(role string) bool {
	switch role {
	case OrgRoleOwner, OrgRoleAdmin, OrgRoleStaff, OrgRoleMember:
		return true
	}
	return false
}

// UpdateMemberReq patch body for a member's role or status
type UpdateMemberReq struct {
	Role   string `json:"role"`
	Status string `json:"status"`
}

// MemberInfo enriched membership row for member listings
type MemberInfo struct {
	Membership
	Email string `json:"email"`
	Name  string `json:"name"`
}
