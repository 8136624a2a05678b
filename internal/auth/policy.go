package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Keoroanthony/go-storefront/internal/models"
)

// Operation names an action a caller may or may not perform. Keeping the
// policy separate from the transaction logic means the allow/deny rules can
// change without touching cart or order code.
type Operation string

const (
	OpListAllOrders     Operation = "orders:list_all"
	OpUpdateOrderStatus Operation = "orders:update_status"
	OpManageCatalog     Operation = "catalog:manage"
)

type Policy interface {
	Allow(ident Identity, op Operation) bool
}

// RolePolicy maps each operation to the roles allowed to perform it.
// Operations with no entry are denied to everyone.
type RolePolicy map[Operation][]string

func (p RolePolicy) Allow(ident Identity, op Operation) bool {
	for _, role := range p[op] {
		if role == ident.Role {
			return true
		}
	}
	return false
}

func DefaultPolicy() RolePolicy {
	return RolePolicy{
		OpListAllOrders:     {models.RoleAdmin},
		OpUpdateOrderStatus: {models.RoleAdmin},
		OpManageCatalog:     {models.RoleAdmin},
	}
}

// Require is the authorization middleware; it runs after RequireAuth and
// rejects callers the policy does not allow for op.
func Require(policy Policy, op Operation) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := CurrentIdentity(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		if !policy.Allow(ident, op) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}
