package model

// Organization workspace table
type Organization struct {
	BaseModel
	OrgId     string `gorm:"column:org_id;uniqueIndex" json:"orgId"`
	Name      string `gorm:"column:name" json:"name"`
	Slug      string `gorm:"column:slug;uniqueIndex" json:"slug"`
	CreatedBy string `gorm:"column:created_by;index" json:"createdBy"`
}

func (Organization) TableName() string {
	return "t_organization"
}

// CreateOrgReq create organization request body
type CreateOrgReq struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// UpdateOrgReq patch body for the current organization
type UpdateOrgReq struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// SwitchOrgReq switch current organization request body
type SwitchOrgReq struct {
	OrgId string `json:"orgId"`
}

// OrgWithMemberCount admin listing row
type OrgWithMemberCount struct {
	Organization
	MemberCount int64 `json:"memberCount"`
}
