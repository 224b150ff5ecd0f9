package rbac

// Role names are fixed for the dashboard; there is no role management UI.
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleEmployee = "employee"
	RoleSPC      = "spc"
)

// Permission names used across route guards.
const (
	PermEmployeesView   = "employees.view"
	PermEmployeesManage = "employees.manage"
	PermProductsView    = "products.view"
	PermProductsManage  = "products.manage"
	PermSalesView       = "sales.view"
	PermSalesCreate     = "sales.create"
	PermSalesManage     = "sales.manage"
	PermSalesLinesEdit  = "sales.lines.edit"
	PermAttendanceView  = "attendance.view"
	PermAttendanceClock = "attendance.clock"
	PermInsightsView    = "insights.view"
)

// rolePermissions maps each role to its granted permissions. Only admin,
// manager and spc may edit line items of an existing sale.
var rolePermissions = map[string][]string{
	RoleAdmin: {
		PermEmployeesView, PermEmployeesManage,
		PermProductsView, PermProductsManage,
		PermSalesView, PermSalesCreate, PermSalesManage, PermSalesLinesEdit,
		PermAttendanceView, PermAttendanceClock,
		PermInsightsView,
	},
	RoleManager: {
		PermEmployeesView,
		PermProductsView, PermProductsManage,
		PermSalesView, PermSalesCreate, PermSalesManage, PermSalesLinesEdit,
		PermAttendanceView, PermAttendanceClock,
		PermInsightsView,
	},
	RoleSPC: {
		PermProductsView,
		PermSalesView, PermSalesCreate, PermSalesManage, PermSalesLinesEdit,
		PermAttendanceClock,
		PermInsightsView,
	},
	RoleEmployee: {
		PermProductsView,
		PermSalesView, PermSalesCreate,
		PermAttendanceClock,
	},
}

// ValidRole reports whether the given role name is known.
func ValidRole(role string) bool {
	_, ok := rolePermissions[role]
	return ok
}

// PermissionsForRole returns the permission set granted to a role.
func PermissionsForRole(role string) []string {
	perms := rolePermissions[role]
	out := make([]string, len(perms))
	copy(out, perms)
	return out
}
