// Package permissions holds the authorization predicates used by protected routes.
package permissions

import (
	"net/http"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

type Operation int

const (
	Read Operation = iota
	Create
	Update
	Delete
)

func (o Operation) IsMutation() bool {
	return o != Read
}

func (o Operation) String() string {
	switch o {
	case Read:
		return "read"
	case Create:
		return "create"
	case Update:
		return "update"
	case Delete:
		return "delete"
	default:
		return "unknown"
	}
}

// OperationFromMethod maps HTTP methods onto operations. GET, HEAD and OPTIONS are reads.
func OperationFromMethod(method string) Operation {
	switch method {
	case http.MethodPost:
		return Create
	case http.MethodPut, http.MethodPatch:
		return Update
	case http.MethodDelete:
		return Delete
	default:
		return Read
	}
}

// Principal is the caller as seen by the predicates. The zero value is anonymous.
type Principal struct {
	Authenticated bool
	AccountID     uint
	Role          models.Role
	EmailVerified bool
}

func PrincipalFor(a *models.Account) Principal {
	if a == nil {
		return Principal{}
	}
	return Principal{
		Authenticated: true,
		AccountID:     a.ID,
		Role:          a.Role,
		EmailVerified: a.IsEmailVerified,
	}
}

type Predicate func(p Principal, op Operation) bool

func IsUserOrHigher(p Principal, _ Operation) bool {
	return p.Authenticated && p.Role.AtLeast(models.RoleUser)
}

// IsEmployeeOrHigherOnMutation lets anyone read and only staff mutate.
func IsEmployeeOrHigherOnMutation(p Principal, op Operation) bool {
	if !op.IsMutation() {
		return true
	}
	return p.Authenticated && p.Role.AtLeast(models.RoleEmployee)
}

func IsEmailVerified(p Principal, _ Operation) bool {
	return p.Authenticated && p.EmailVerified
}

func All(preds ...Predicate) Predicate {
	return func(p Principal, op Operation) bool {
		for _, pred := range preds {
			if !pred(p, op) {
				return false
			}
		}
		return true
	}
}
