package domain

// EntityType identifies which kind of record an administrator manages.
type EntityType string

const (
	EntityInstitution EntityType = "institution"
	EntityScholarship EntityType = "scholarship"
)

// ValidEntityType reports whether s is a known entity type.
func ValidEntityType(s string) bool {
	switch EntityType(s) {
	case EntityInstitution, EntityScholarship:
		return true
	}
	return false
}

// Scholarship is the minimal slice of a scholarship record this service
// needs: enough to resolve a display name during invitation validation.
// Full scholarship CRUD lives in the public directory API.
type Scholarship struct {
	ID    string
	Title string
}
