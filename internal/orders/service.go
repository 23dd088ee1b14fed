// Copyright (c) 2026 Kaka HQ. All rights reserved.

package orders

import (
	"context"
	"errors"

	"github.com/kaka-hq/dealerdesk/internal/platform/apperr"
	"github.com/kaka-hq/dealerdesk/pkg/pagination"
)

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Get returns one order by ID.
func (service *Service) Get(ctx context.Context, id string) (*Order, error) {
	order, err := service.store.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return order, nil
}

// List returns one page of the order book, optionally filtered by status.
func (service *Service) List(ctx context.Context, filter Filter, params pagination.Params) ([]Order, pagination.Meta, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, pagination.Meta{}, apperr.ValidationError("Unknown order status", apperr.FieldError{
			Field:   "status",
			Message: "Must be one of: pending, confirmed, shipped, delivered, cancelled",
		})
	}

	results, total, err := service.store.List(ctx, filter, params)
	if err != nil {
		return nil, pagination.Meta{}, mapStoreError(err)
	}

	return results, pagination.NewMeta(params.Page, params.Limit, total), nil
}

func mapStoreError(err error) error {
	var appError *apperr.AppError
	if errors.As(err, &appError) {
		return appError
	}
	return apperr.StoreUnavailable(err)
}
