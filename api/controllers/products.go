package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/rematter-io/rematter-backend/api/responses"
	"github.com/rematter-io/rematter-backend/api/validators"
	"github.com/rematter-io/rematter-backend/internal/products"
	pkgerrors "github.com/rematter-io/rematter-backend/pkg/errors"
	"github.com/rematter-io/rematter-backend/pkg/logger"
)

type ProductsController struct {
	svc  products.Service
	logg *logger.Logger
}

func NewProductsController(svc products.Service, logg *logger.Logger) *ProductsController {
	return &ProductsController{svc: svc, logg: logg}
}

// List is the public catalog listing with optional category, seller and
// free-text filters.
func (c *ProductsController) List(w http.ResponseWriter, r *http.Request) {
	params, err := validators.ParsePagination(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	filters := products.ListFilters{
		Query: strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filters.Category = &category
	}
	if rawSeller := strings.TrimSpace(r.URL.Query().Get("seller_id")); rawSeller != "" {
		sellerID, parseErr := uuid.Parse(rawSeller)
		if parseErr != nil {
			responses.WriteError(r.Context(), c.logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid seller_id").WithDetails(map[string]any{"field": "seller_id"}))
			return
		}
		filters.SellerID = &sellerID
	}

	list, err := c.svc.List(r.Context(), params, filters)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}

func (c *ProductsController) Get(w http.ResponseWriter, r *http.Request) {
	productID, err := pathUUID(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.svc.Get(r.Context(), productID)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, products.Summarize(*product))
}

func (c *ProductsController) Create(w http.ResponseWriter, r *http.Request) {
	sellerID, _, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var input products.CreateProductInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.svc.Create(r.Context(), sellerID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccessStatus(w, http.StatusCreated, products.Summarize(*product))
}

func (c *ProductsController) Update(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	productID, err := pathUUID(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	var input products.UpdateProductInput
	if err := validators.DecodeJSONBody(r, &input); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	product, err := c.svc.Update(r.Context(), actorID, role, productID, input)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, products.Summarize(*product))
}

func (c *ProductsController) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, role, err := actor(r)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	productID, err := pathUUID(r, "productId")
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	if err := c.svc.Delete(r.Context(), actorID, role, productID); err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, map[string]any{"deleted": true})
}

// MyListings returns the authenticated seller's own products, including
// retired ones.
func (c *ProductsController) MyListings(w http.ResponseWriter, r *http.Request) {
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

	list, err := c.svc.ListBySeller(r.Context(), sellerID, params)
	if err != nil {
		responses.WriteError(r.Context(), c.logg, w, err)
		return
	}

	responses.WriteSuccess(w, list)
}
