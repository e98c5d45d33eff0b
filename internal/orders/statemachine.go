package orders

import (
	"fmt"

	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
)

// transitions is the explicit order lifecycle graph. Shipped and cancelled
// are terminal and have no outgoing edges.
var transitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:   {enums.OrderStatusConfirmed, enums.OrderStatusCancelled},
	enums.OrderStatusConfirmed: {enums.OrderStatusShipped, enums.OrderStatusCancelled},
	enums.OrderStatusShipped:   {},
	enums.OrderStatusCancelled: {},
}

// CanTransition reports whether the lifecycle graph allows moving from one
// status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// ValidateTransition returns a state conflict error when the move is not in
// the lifecycle graph. Same-status updates are rejected too: a transition
// must change the order.
func ValidateTransition(from, to enums.OrderStatus) error {
	if CanTransition(from, to) {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict,
		fmt.Sprintf("cannot transition order from %s to %s", from, to))
}

// NormalizeDecision maps a raw status input to an order status. Sellers may
// send "rejected" when turning an order down; it is an alias for cancelled.
func NormalizeDecision(raw string) (enums.OrderStatus, error) {
	if raw == "rejected" {
		return enums.OrderStatusCancelled, nil
	}
	status, err := enums.ParseOrderStatus(raw)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", raw))
	}
	return status, nil
}
