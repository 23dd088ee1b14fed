// Copyright (c) 2026 Kaka HQ. All rights reserved.

package orders

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
	requestutil "github.com/kaka-hq/dealerdesk/internal/platform/request"
	"github.com/kaka-hq/dealerdesk/internal/platform/respond"
	"github.com/kaka-hq/dealerdesk/internal/platform/validate"
	"github.com/kaka-hq/dealerdesk/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for the /api/orders subtree.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	router.Get("/{orderID}", handler.get)
	return router
}

/*
list handles GET /api/orders.

Supports page/limit pagination and an optional ?status= filter.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)
	filter := Filter{Status: Status(request.URL.Query().Get("status"))}

	results, meta, err := handler.service.List(request.Context(), filter, params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if results == nil {
		results = []Order{}
	}
	respond.Paginated(writer, results, meta)
}

/*
get handles GET /api/orders/{orderID}.
*/
func (handler *Handler) get(writer http.ResponseWriter, request *http.Request) {
	orderID := requestutil.Param(request, "orderID")

	validator := &validate.Validator{}
	if err := validator.UUID("orderID", orderID).Err(); err != nil {
		// A malformed ID can never match a row; report it the same way.
		respond.Error(writer, request, apperr.NotFound("Order"))
		return
	}

	order, err := handler.service.Get(request.Context(), orderID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, order)
}
