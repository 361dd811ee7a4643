package domain

// UserRole defines the role (user type) a user acts under.
type UserRole string

const (
	RolePermittingOfficer    UserRole = "permitting_officer"
	RoleChairperson          UserRole = "chairperson"
	RoleCatchmentManager     UserRole = "catchment_manager"
	RoleCatchmentChairperson UserRole = "catchment_chairperson"
	RolePermitSupervisor     UserRole = "permit_supervisor"
	RoleICT                  UserRole = "ict" // privileged override role
)

// IsValid reports whether r is one of the known roles.
func (r UserRole) IsValid() bool {
	switch r {
	case RolePermittingOfficer, RoleChairperson, RoleCatchmentManager,
		RoleCatchmentChairperson, RolePermitSupervisor, RoleICT:
		return true
	}
	return false
}

// User is a system account able to act on applications.
type User struct {
	UserID       string   `json:"userID"`
	Username     string   `json:"username"`
	Name         string   `json:"name"`
	Email        string   `json:"email"`
	Role         UserRole `json:"role"`
	PasswordHash string   `json:"-"`
	IsActive     bool     `json:"isActive"`
	AuditFields
}

// Actor identifies who performs an operation and under which role.
type Actor struct {
	UserID string
	Name   string
	Role   UserRole
}
