package rbac

// Subject identifies an authenticated user together with its resolved role.
type Subject struct {
	ID       int64
	Username string
	Email    string
	Role     Role
}

// Principal is the actor bound to a request. It is a two-state variant:
// either an authenticated subject or the anonymous principal used when no
// credential was presented. The zero value is anonymous.
type Principal struct {
	subject *Subject
}

// Authenticated wraps a subject into a principal.
func Authenticated(s Subject) Principal {
	return Principal{subject: &s}
}

// Anonymous returns the principal used for unauthenticated requests.
func Anonymous() Principal {
	return Principal{}
}

// IsAnonymous reports whether no subject is bound.
func (p Principal) IsAnonymous() bool {
	return p.subject == nil
}

// Subject returns the bound subject, if any.
func (p Principal) Subject() (Subject, bool) {
	if p.subject == nil {
		return Subject{}, false
	}
	return *p.subject, true
}

// Can reports whether the principal holds every bit in required. The
// anonymous principal denies every request, including required == 0: an
// unauthenticated caller never passes a permission guard.
func (p Principal) Can(required Permission) bool {
	if p.subject == nil {
		return false
	}
	return p.subject.Role.Grants(required)
}
