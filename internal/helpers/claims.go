package helpers

import "github.com/gin-gonic/gin"

const PrincipalKey = "user"

// Principal is the authenticated caller resolved from a verified token.
type Principal struct {
	*CustomClaims
	UserID int64  `json:"id"`
	AuthID string `json:"auth_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
}

func (p *Principal) IsAdmin() bool {
	return p.Role == "admin"
}

func (p *Principal) IsOwner(userID int64) bool {
	return p.UserID == userID
}

// CurrentPrincipal returns the principal stored by the auth middleware.
func CurrentPrincipal(c *gin.Context) (*Principal, bool) {
	v, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, false
	}
	p, ok := v.(*Principal)
	return p, ok && p != nil
}
