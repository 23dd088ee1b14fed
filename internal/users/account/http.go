// Copyright (c) 2026 Kaka HQ. All rights reserved.

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kaka-hq/dealerdesk/internal/platform/respond"
	"github.com/kaka-hq/dealerdesk/pkg/pagination"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for the /api/admin/users subtree. Role
// enforcement happens in the server's middleware chain, not here.
func (handler *Handler) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", handler.list)
	return router
}

/*
list handles GET /api/admin/users.

Returns a paginated operator directory with live session counts.
*/
func (handler *Handler) list(writer http.ResponseWriter, request *http.Request) {
	params := pagination.FromRequest(request)

	summaries, meta, err := handler.service.List(request.Context(), params)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if summaries == nil {
		summaries = []Summary{}
	}
	respond.Paginated(writer, summaries, meta)
}
