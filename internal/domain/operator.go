package domain

import "time"

// Operator is a venue-admin identity. Operator identity is what check-in
// provenance records; authentication mechanics beyond token issue/verify
// are out of scope.
type Operator struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Venue string `json:"venue"`
}

// TokenIssuer issues bearer tokens (e.g. JWT) for a venue operator.
type TokenIssuer interface {
	Issue(operatorID, email, venue string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a bearer token and returns the operator identity.
type TokenVerifier interface {
	Verify(token string) (operatorID string, err error)
}
