package rbac

import "time"

// Permission is a bitmask of capability flags. A role holds the OR of the
// bits it grants.
type Permission uint8

const (
	// PermComment allows posting comments.
	PermComment Permission = 0x02
	// PermWriteArticles allows authoring articles.
	PermWriteArticles Permission = 0x04
	// PermModerateComments allows moderating other users' comments.
	PermModerateComments Permission = 0x08
	// PermAdmin allows administrative operations (user listing, role
	// reassignment, deletion).
	PermAdmin Permission = 0x80

	// PermAll is every capability bit set.
	PermAll Permission = 0xff
)

// Role represents a named permission grouping.
type Role struct {
	ID          int64
	Name        string
	Permissions Permission
	IsDefault   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Grants reports whether the role holds every bit in required. This is a
// strict superset check: overlapping on some bits is not enough.
func (r Role) Grants(required Permission) bool {
	return r.Permissions&required == required
}
