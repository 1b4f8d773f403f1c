package domain

// SessionState is the lifecycle position of a client session.
//
//	uninitialized --bootstrap--> authenticated | anonymous
//	authenticated --logout / failed refresh--> anonymous
//	anonymous --login / register--> authenticated
type SessionState string

const (
	SessionUninitialized SessionState = "uninitialized"
	SessionAuthenticated SessionState = "authenticated"
	SessionAnonymous     SessionState = "anonymous"
)

// Panel names a role-scoped area of the console.
type Panel string

const (
	PanelAdmin    Panel = "admin"
	PanelOperator Panel = "operator"
)

// Allows reports whether a principal with role may open the panel. Admins may
// open the operator panel as well.
func (p Panel) Allows(role string) bool {
	switch p {
	case PanelAdmin:
		return role == RoleAdmin
	case PanelOperator:
		return role == RoleOperator || role == RoleAdmin
	default:
		return false
	}
}
