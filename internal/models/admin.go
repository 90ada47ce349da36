package models

type AdminRole string

const (
	RoleUniversityAdmin AdminRole = "UNIVERSITY_ADMIN"
	RoleFacultyAdmin    AdminRole = "FACULTY_ADMIN"
	RoleSuperAdmin      AdminRole = "SUPERADMIN"
)

// AdminPermission is the capability set of an administrator, resolved once
// per request and handed to every protected operation.
type AdminPermission struct {
	UserID        string    `json:"user_id" db:"user_id"`
	Role          AdminRole `json:"role" db:"role"`
	FacultyID     *string   `json:"faculty_id" db:"faculty_id"`
	HasFullAccess bool      `json:"has_full_access" db:"has_full_access"`
}

func (p *AdminPermission) IsUniversityAdmin() bool {
	return p != nil && (p.Role == RoleUniversityAdmin || p.HasFullAccess)
}

func (p *AdminPermission) IsFacultyAdmin() bool {
	return p != nil && (p.Role == RoleFacultyAdmin || p.HasFullAccess)
}

// CanRunAllocation gates the batch runner and the manual override: only
// university-level admins or full-access admins may decide admissions.
func (p *AdminPermission) CanRunAllocation() bool {
	return p.IsUniversityAdmin()
}
