package domain

import "time"

// Role of a delegated administrator. Super admins are unscoped; regular
// admins are permanently bound to the entity their invitation named.
type Role string

const (
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

// AdminIdentity is a delegated administrator bound to exactly one entity.
// EntityType/EntityID are immutable after creation for non-super-admins and
// always equal the invitation that was claimed at registration.
type AdminIdentity struct {
	ID           string
	Email        string
	PasswordHash string
	EntityType   EntityType
	EntityID     string
	Role         Role
	IsActive     bool
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// CanManage reports whether the identity may administer the given entity.
func (a AdminIdentity) CanManage(entityType EntityType, entityID string) bool {
	if a.Role == RoleSuperAdmin {
		return true
	}
	return a.EntityType == entityType && a.EntityID == entityID
}
