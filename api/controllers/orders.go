package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rematter-io/rematter-backend/api/responses"
	"github.com/rematter-io/rematter-backend/api/validators"
	"github.com/rematter-io/rematter-backend/internal/orders"
	"github.com/rematter-io/rematter-backend/internal/transactions"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/logger"
)

type OrdersController struct {
	svc    orders.Service
	txnSvc transactions.Service
	logg   *logger.Logger
}

func NewOrdersController(svc orders.Service, txnSvc transactions.Service, logg *logger.Logger) *OrdersController {
	return &OrdersController{svc: svc, txnSvc: txnSvc, logg: logg}
}

// Place reserves the requested stock and creates a pending order plus its
// pending transaction in one shot.
func (c *OrdersController) Place(w http.ResponseWriter, r *http.Request) {
	buyerID, _, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var input orders.PlaceOrderInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	order, err := c.svc.PlaceOrder(r.Context(), buyerID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, orders.Summarize(*order))
}

func (c *OrdersController) Get(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	order, err := c.svc.GetOrder(r.Context(), actorID, role, orderID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, orders.Summarize(*order))
}

// GetTransaction exposes the approval state of an order's transaction so a
// buyer can see whether their purchase has been approved yet.
func (c *OrdersController) GetTransaction(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	txn, err := c.txnSvc.ForOrder(r.Context(), actorID, role, orderID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, transactionView(txn))
}

// List returns the caller's orders: the buyer's own purchases, or for
// sellers every order containing one of their products.
func (c *OrdersController) List(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	filters, err := orderFilters(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var list *orders.OrderList
	switch role {
	case enums.UserRoleSeller:
		list, err = c.svc.ListSellerOrders(r.Context(), actorID, params, filters)
	default:
		list, err = c.svc.ListBuyerOrders(r.Context(), actorID, params, filters)
	}
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

// SellerOrders returns every order containing one of the authenticated
// seller's products.
func (c *OrdersController) SellerOrders(w http.ResponseWriter, r *http.Request) {
	sellerID, _, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	filters, err := orderFilters(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	list, err := c.svc.ListSellerOrders(r.Context(), sellerID, params, filters)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

// UpdateStatus moves an order along its lifecycle: sellers ship or cancel
// orders carrying their products, admins may adjust any order.
func (c *OrdersController) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	orderID, err := pathUUID(r, "orderId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	order, err := c.svc.UpdateStatus(r.Context(), actorID, role, orderID, body.Status)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, orders.Summarize(*order))
}

func orderFilters(r *http.Request) (orders.OrderFilters, error) {
	var filters orders.OrderFilters

	if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
		status, err := enums.ParseOrderStatus(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").WithDetails(map[string]any{"field": "status"})
		}
		filters.Status = &status
	}

	for _, field := range []struct {
		key  string
		dest **time.Time
	}{
		{"date_from", &filters.DateFrom},
		{"date_to", &filters.DateTo},
	} {
		raw := strings.TrimSpace(r.URL.Query().Get(field.key))
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if parsed, err = time.Parse("2006-01-02", raw); err != nil {
				return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid date filter").WithDetails(map[string]any{"field": field.key})
			}
		}
		*field.dest = &parsed
	}

	return filters, nil
}
