package controllers

import (
	"net/http"
	"strings"

	"github.com/rematter-io/rematter-backend/api/responses"
	"github.com/rematter-io/rematter-backend/api/validators"
	"github.com/rematter-io/rematter-backend/internal/admin"
	"github.com/rematter-io/rematter-backend/internal/transactions"
	"github.com/rematter-io/rematter-backend/pkg/db/models"
	"github.com/rematter-io/rematter-backend/pkg/enums"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/logger"
)

type AdminController struct {
	svc    admin.Service
	txnSvc transactions.Service
	logg   *logger.Logger
}

func NewAdminController(svc admin.Service, txnSvc transactions.Service, logg *logger.Logger) *AdminController {
	return &AdminController{svc: svc, txnSvc: txnSvc, logg: logg}
}

func (c *AdminController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := c.svc.Stats(r.Context())
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}
	responses.WriteSuccess(w, stats)
}

func (c *AdminController) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var role *enums.UserRole
	if raw := strings.TrimSpace(r.URL.Query().Get("role")); raw != "" {
		parsed, parseErr := enums.ParseUserRole(raw)
		if parseErr != nil {
			responses.WriteError(r.Context(), c.logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid role filter").WithDetails(map[string]any{"field": "role"}))
			return
		}
		role = &parsed
	}

	list, err := c.svc.ListUsers(r.Context(), params, role)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

func (c *AdminController) ListOrders(w http.ResponseWriter, r *http.Request) {
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

	list, err := c.svc.ListOrders(r.Context(), params, filters)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

// DecideTransaction approves or rejects a pending transaction and cascades
// the decision onto the order.
func (c *AdminController) DecideTransaction(w http.ResponseWriter, r *http.Request) {
	adminID, _, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	transactionID, err := pathUUID(r, "transactionId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var body struct {
		Decision string `json:"decision" validate:"required,oneof=approved rejected"`
	}
	if err := validators.DecodeJSONBody(r, &body); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	decision, err := enums.ParseTransactionStatus(body.Decision)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w,
			pkgerrors.New(pkgerrors.CodeValidation, "invalid decision"))
		return
	}

	txn, err := c.txnSvc.Decide(r.Context(), transactions.DecideInput{
		TransactionID: transactionID,
		AdminID:       adminID,
		Decision:      decision,
	})
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, transactionView(txn))
}

func transactionView(txn *models.Transaction) map[string]any {
	view := map[string]any{
		"id":       txn.ID,
		"order_id": txn.OrderID,
		"status":   txn.Status,
	}
	if txn.ApprovedBy != nil {
		view["approved_by"] = *txn.ApprovedBy
	}
	return view
}
