package domain

// Identity is the verified caller produced by bearer token verification.
// Services receive it explicitly; it is never looked up from ambient state.
type Identity struct {
	UserID string
	Email  string
}

// IsZero reports whether the identity carries no user.
func (i Identity) IsZero() bool {
	return i.UserID == ""
}
