// Copyright (c) 2026 Kaka HQ. All rights reserved.

package account

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

// List returns one page of the operator directory.
func (service *Service) List(ctx context.Context, params pagination.Params) ([]Summary, pagination.Meta, error) {
	summaries, total, err := service.store.List(ctx, params)
	if err != nil {
		var appError *apperr.AppError
		if errors.As(err, &appError) {
			return nil, pagination.Meta{}, appError
		}
		return nil, pagination.Meta{}, apperr.StoreUnavailable(err)
	}

	return summaries, pagination.NewMeta(params.Page, params.Limit, total), nil
}
