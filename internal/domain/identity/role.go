package identity

// Role is the closed set of login roles. Role strings are stored in the
// state document and sent by clients at login, so the values are frozen.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleOffice    Role = "office"
	RolePrincipal Role = "principal"
	RoleHOD       Role = "hod"
	RoleFaculty   Role = "faculty"
	RoleStudent   Role = "student"
)

// IsValid checks if the role is one of the six known roles
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleOffice, RolePrincipal, RoleHOD, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}

// IsStaff returns true for every role that logs in by email rather than
// by register number.
func (r Role) IsStaff() bool {
	return r.IsValid() && r != RoleStudent
}

// Capability names an action a role is allowed to perform
type Capability string

const (
	CapManageUsers     Capability = "manage-users"
	CapManageStudents  Capability = "manage-students"
	CapManageFees      Capability = "manage-fees"
	CapAllocateFees    Capability = "allocate-fees"
	CapApprovePayments Capability = "approve-payments"
	CapViewReports     Capability = "view-reports"
	CapSubmitPayments  Capability = "submit-payments"
	CapEditOwnProfile  Capability = "edit-own-profile"
)

// roleCapabilities is the exhaustive dispatch table mapping each role to
// its capability set.
var roleCapabilities = map[Role][]Capability{
	RoleAdmin: {
		CapManageUsers, CapManageStudents, CapManageFees, CapAllocateFees,
		CapApprovePayments, CapViewReports,
	},
	RoleOffice: {
		CapManageStudents, CapManageFees, CapAllocateFees,
		CapApprovePayments, CapViewReports,
	},
	RolePrincipal: {CapApprovePayments, CapViewReports},
	RoleHOD:       {CapApprovePayments, CapViewReports},
	RoleFaculty:   {CapViewReports},
	RoleStudent:   {CapSubmitPayments, CapEditOwnProfile},
}

// Can reports whether the role holds the given capability
func (r Role) Can(cap Capability) bool {
	for _, c := range roleCapabilities[r] {
		if c == cap {
			return true
		}
	}
	return false
}

// Capabilities returns the capability set for the role
func (r Role) Capabilities() []Capability {
	caps := roleCapabilities[r]
	out := make([]Capability, len(caps))
	copy(out, caps)
	return out
}
