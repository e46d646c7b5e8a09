package entity

// Roles del workspace, de menor a mayor privilegio.
const (
	RoleMember = "MEMBER"
	RoleAdmin  = "ADMIN"
	RoleOwner  = "OWNER"
)

var roleRank = map[string]int{
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// IsValidRole valida el rol contra el catálogo.
func IsValidRole(role string) bool {
	_, ok := roleRank[role]
	return ok
}

// Actor identifica a quien invoca una operación: usuario, workspace y rol.
// Los tokens los emite otro servicio; aquí solo se consumen.
type Actor struct {
	UserID      string
	WorkspaceID string
	Role        string
}

// Can indica si el rol del actor alcanza el mínimo requerido.
func (a Actor) Can(required string) bool {
	have, ok := roleRank[a.Role]
	if !ok {
		return false
	}
	return have >= roleRank[required]
}
