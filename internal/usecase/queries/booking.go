package queries

import (
	"context"

	"github.com/google/uuid"
)

type BookingQueries interface {
	GetByID(ctx context.Context, tenantID, id uuid.UUID) (*BookingView, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
}

type BookingViewRepo interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*BookingView, error)
	FindByTenantPaginated(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*BookingListItem, error)
}

type bookingQueriesImpl struct {
	repo BookingViewRepo
}

func NewBookingQueries(repo BookingViewRepo) BookingQueries {
	return &bookingQueriesImpl{repo: repo}
}

func (q *bookingQueriesImpl) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*BookingView, error) {
	return q.repo.FindByID(ctx, tenantID, id)
}

func (q *bookingQueriesImpl) ListByTenant(ctx context.Context, tenantID uuid.UUID, limit, offset int32) ([]*BookingListItem, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return q.repo.FindByTenantPaginated(ctx, tenantID, limit, offset)
}
