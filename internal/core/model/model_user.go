package model

// User account table. Role is the platform-level role (USER/ADMIN), not an
// org role; org roles live on Membership.
type User struct {
	BaseModel
	UserId       string `gorm:"column:user_id;uniqueIndex" json:"userId"`
	Email        string `gorm:"column:email;uniqueIndex" json:"email"`
	Name         string `gorm:"column:name" json:"name"`
	Password     string `gorm:"column:password" json:"-"`
	Role         string `gorm:"column:role;index" json:"role"`
	Avatar       string `gorm:"column:avatar" json:"avatar"`
	CurrentOrgId string `gorm:"column:current_org_id;index" json:"currentOrgId"`
}

func (User) TableName() string {
	return "t_user"
}

// platform roles
const (
	PlatformRoleUser  = "USER"
	PlatformRoleAdmin = "ADMIN"
)

// SignupReq signup request body
type SignupReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// LoginReq login request body
type LoginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Identity is the snapshot of who the caller is, served by /api/auth/me and
// pushed over the realtime stream. Permissions are derived from the current
// org membership at read time.
type Identity struct {
	UserId       string   `json:"userId"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Role         string   `json:"role"`
	Avatar       string   `json:"avatar,omitempty"`
	CurrentOrgId string   `json:"currentOrgId,omitempty"`
	OrgRole      string   `json:"orgRole,omitempty"`
	Permissions  []string `json:"permissions,omitempty"`
}
