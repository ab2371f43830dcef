package auth

import "twitter-clone/internal/domain"

// Result is the outcome of upstream authentication: either anonymous or an
// authenticated principal.
type Result struct {
	user          domain.User
	authenticated bool
}

func Anonymous() Result {
	return Result{}
}

func Authenticated(user domain.User) Result {
	return Result{user: user, authenticated: true}
}

// Principal returns the authenticated user, if any.
func (r Result) Principal() (domain.User, bool) {
	return r.user, r.authenticated
}
