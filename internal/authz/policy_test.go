package authz

import (
	"testing"

	"github.com/rematter-io/rematter-backend/pkg/enums"
)

func TestPolicy(t *testing.T) {
	t.Parallel()

	cases := []struct {
		role    enums.UserRole
		action  Action
		allowed bool
	}{
		{enums.UserRoleBuyer, ActionPlaceOrder, true},
		{enums.UserRoleBuyer, ActionViewOwnOrders, true},
		{enums.UserRoleBuyer, ActionManageProducts, false},
		{enums.UserRoleBuyer, ActionDecideTransaction, false},
		{enums.UserRoleSeller, ActionManageProducts, true},
		{enums.UserRoleSeller, ActionUpdateOrderStatus, true},
		{enums.UserRoleSeller, ActionPlaceOrder, false},
		{enums.UserRoleSeller, ActionViewAdminPanel, false},
		{enums.UserRoleAdmin, ActionDecideTransaction, true},
		{enums.UserRoleAdmin, ActionViewAdminPanel, true},
		{enums.UserRoleAdmin, ActionPlaceOrder, false},
		{enums.UserRole("ghost"), ActionPlaceOrder, false},
	}
	for _, tc := range cases {
		if got := Can(tc.role, tc.action); got != tc.allowed {
			t.Errorf("Can(%s, %s) = %v, want %v", tc.role, tc.action, got, tc.allowed)
		}
	}
}
