package orderControllers

import (
	"fmt"

	"github.com/Mouss911/webnet-back/apperr"
	"github.com/Mouss911/webnet-back/models"
)

// TransitionPolicy decides whether an order may move from one status to another.
type TransitionPolicy interface {
	Allow(from, to models.OrderStatus) error
}

// PermissivePolicy accepts every transition, including leaving completed or
// cancelled orders.
type PermissivePolicy struct{}

func (PermissivePolicy) Allow(from, to models.OrderStatus) error { return nil }

// GuardedPolicy refuses to move an order out of a terminal status.
type GuardedPolicy struct{}

func (GuardedPolicy) Allow(from, to models.OrderStatus) error {
	if from != to && from.IsTerminal() {
		return apperr.InvalidState(fmt.Sprintf("Cannot change status of a %s order", from))
	}
	return nil
}

// PolicyFor maps the ORDER_STATUS_POLICY setting onto a policy.
func PolicyFor(name string) (TransitionPolicy, error) {
	switch name {
	case "", "permissive":
		return PermissivePolicy{}, nil
	case "guarded":
		return GuardedPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown order status policy %q", name)
	}
}
