package authz

import "github.com/rematter-io/rematter-backend/pkg/enums"

// Action names a guarded operation.
type Action string

const (
	ActionPlaceOrder        Action = "orders.place"
	ActionViewOwnOrders     Action = "orders.view_own"
	ActionUpdateOrderStatus Action = "orders.update_status"
	ActionManageProducts    Action = "products.manage"
	ActionViewSellerOrders  Action = "orders.view_seller"
	ActionDecideTransaction Action = "transactions.decide"
	ActionViewAdminPanel    Action = "admin.view"
)

// policy maps each role to the actions it may perform. Admins are not a
// superset of the other roles: they cannot place orders or list products.
var policy = map[enums.UserRole]map[Action]bool{
	enums.UserRoleBuyer: {
		ActionPlaceOrder:    true,
		ActionViewOwnOrders: true,
	},
	enums.UserRoleSeller: {
		ActionManageProducts:    true,
		ActionViewSellerOrders:  true,
		ActionUpdateOrderStatus: true,
	},
	enums.UserRoleAdmin: {
		ActionViewOwnOrders:     true,
		ActionUpdateOrderStatus: true,
		ActionDecideTransaction: true,
		ActionViewAdminPanel:    true,
	},
}

// Can reports whether the role is allowed to perform the action.
func Can(role enums.UserRole, action Action) bool {
	return policy[role][action]
}
