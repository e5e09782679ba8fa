// AngelaMos | 2026
// dto.go

package audit

import (
	"time"
)

type ListParams struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 20
	}
	if p.PageSize > 100 {
		p.PageSize = 100
	}
}

func (p *ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

type EntryResponse struct {
	ID            string    `json:"id"`
	AdminID       string    `json:"admin_id"`
	AdminName     string    `json:"admin_name"`
	TargetUserID  string    `json:"target_user_id"`
	TargetEmail   string    `json:"target_email"`
	Action        string    `json:"action"`
	Description   string    `json:"description"`
	ChangedFields string    `json:"changed_fields,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
