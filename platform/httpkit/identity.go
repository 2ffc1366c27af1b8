package httpkit

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Identity is the caller as seen by OptionalAuth. Anonymous callers have
// a zero UserID.
type Identity struct {
	UserID uuid.UUID
}

// IsAuthenticated reports whether a verified access token was presented.
func (i Identity) IsAuthenticated() bool {
	return i.UserID != uuid.Nil
}

// GetIdentity reads the identity OptionalAuth stored on the request.
func GetIdentity(c *gin.Context) Identity {
	raw, ok := c.Get(ContextUserIDKey)
	if !ok {
		return Identity{}
	}
	uid, _ := raw.(uuid.UUID)
	return Identity{UserID: uid}
}

// OptionalUserID returns the caller's user ID, or nil for anonymous callers.
// Sessions record it as their owner.
func OptionalUserID(c *gin.Context) *string {
	id := GetIdentity(c)
	if !id.IsAuthenticated() {
		return nil
	}
	s := id.UserID.String()
	return &s
}
