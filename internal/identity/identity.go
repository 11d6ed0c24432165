// Package identity holds the role model and the authorization predicates
// every other component consults before mutating anything.
package identity

import (
	"strings"

	"github.com/MrD-D-tech/impactusall-mvp-sub000/internal/models"
)

// Role is a platform-wide role
type Role string

const (
	RolePublic        Role = "PUBLIC"
	RoleCharityAdmin  Role = "CHARITY_ADMIN"
	RoleCorporateUser Role = "CORPORATE_USER"
	RolePlatformAdmin Role = "PLATFORM_ADMIN"
)

// DonorRole is the sub-role of a corporate user inside their donor
type DonorRole string

const (
	DonorRoleAdmin  DonorRole = "ADMIN"
	DonorRoleViewer DonorRole = "VIEWER"
)

// ParseRole returns the role for s, or RolePublic for anything unknown
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(s)) {
	case RoleCharityAdmin:
		return RoleCharityAdmin
	case RoleCorporateUser:
		return RoleCorporateUser
	case RolePlatformAdmin:
		return RolePlatformAdmin
	}
	return RolePublic
}

// Principal is the authenticated caller of an operation
type Principal struct {
	UserID    string
	Name      string
	Role      Role
	CharityID string
	DonorID   string
	DonorRole DonorRole
}

// FromUser builds a principal from a stored account
func FromUser(u *models.User) *Principal {
	p := &Principal{
		UserID:    u.ID,
		Name:      u.Name,
		Role:      ParseRole(u.Role),
		DonorRole: DonorRole(u.DonorRole),
	}
	if u.CharityID != nil {
		p.CharityID = *u.CharityID
	}
	if u.DonorID != nil {
		p.DonorID = *u.DonorID
	}
	return p
}

// IsPlatformAdmin reports whether p may act on any tenant's content
func (p *Principal) IsPlatformAdmin() bool {
	return p != nil && p.Role == RolePlatformAdmin
}

// CanManageCharity reports whether p may edit content owned by charityID
func (p *Principal) CanManageCharity(charityID string) bool {
	if p == nil {
		return false
	}
	if p.IsPlatformAdmin() {
		return true
	}
	return p.Role == RoleCharityAdmin && p.CharityID != "" && p.CharityID == charityID
}

// CanViewDonor reports whether p may read donorID's dashboards and reports
func (p *Principal) CanViewDonor(donorID string) bool {
	if p == nil {
		return false
	}
	if p.IsPlatformAdmin() {
		return true
	}
	return p.Role == RoleCorporateUser && p.DonorID != "" && p.DonorID == donorID
}

// CanManageDonor reports whether p may manage donorID's team and settings
func (p *Principal) CanManageDonor(donorID string) bool {
	if p == nil {
		return false
	}
	if p.IsPlatformAdmin() {
		return true
	}
	return p.CanViewDonor(donorID) && p.DonorRole == DonorRoleAdmin
}
