package queries

import (
	"context"
	"sort"
	"time"

	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/pkg/errs"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrInvalidRange       = errs.New("invalid range")
	ErrTenantNotFound     = errs.New("tenant not found")
	ErrServiceNotFound    = errs.New("service not found")
	ErrNoEligibleResource = errs.New("no eligible resource")
)

type AvailabilityQueries interface {
	// ListSlots produces candidate slots for the service over [from, to).
	// A nil resourceID means "any eligible resource".
	ListSlots(ctx context.Context, tenantID, serviceID uuid.UUID, resourceID *uuid.UUID, from, to time.Time) ([]SlotView, error)
}

type availabilityQueriesImpl struct {
	reads shared.CommandReads
}

func NewAvailabilityQueries(reads shared.CommandReads) AvailabilityQueries {
	return &availabilityQueriesImpl{reads: reads}
}

func (q *availabilityQueriesImpl) ListSlots(
	ctx context.Context,
	tenantID, serviceID uuid.UUID,
	resourceID *uuid.UUID,
	from, to time.Time,
) ([]SlotView, error) {
	if to.Before(from) {
		return nil, ErrInvalidRange
	}

	tenantSnap, err := q.reads.TenantByID(ctx, tenantID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	loc, err := tenantSnap.Location()
	if err != nil {
		return nil, errs.Wrap(err, "tenant timezone")
	}

	serviceSnap, err := q.reads.ServiceByID(ctx, tenantID, serviceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, ErrServiceNotFound
		}
		return nil, err
	}

	resources, err := q.eligibleResources(ctx, serviceSnap, resourceID)
	if err != nil {
		return nil, err
	}

	claimDuration := serviceSnap.BufferBefore() + serviceSnap.Duration() + serviceSnap.BufferAfter()

	var slots []SlotView
	for _, res := range resources {
		busy, err := q.reads.BusySlots(ctx, res.ID, from.Add(-claimDuration), to.Add(claimDuration))
		if err != nil {
			return nil, err
		}

		// The lead keeps advertised starts on the grid even when the prep
		// buffer is not a multiple of the granularity; the claim opens
		// Lead earlier than each start.
		starts, err := schedule.CandidateStarts(schedule.GenerateParams{
			TenantHours:   tenantSnap.Hours,
			ResourceHours: res.Hours,
			Busy:          schedule.NewIntervalSet(busy...),
			Location:      loc,
			Duration:      claimDuration,
			Lead:          serviceSnap.BufferBefore(),
			Granularity:   tenantSnap.SlotGranularity(),
			From:          from,
			To:            to,
		})
		if err != nil {
			return nil, ErrInvalidRange
		}

		for _, start := range starts {
			slots = append(slots, SlotView{
				ResourceID: res.ID,
				StartTime:  start,
				EndTime:    start.Add(serviceSnap.Duration()),
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].StartTime.Equal(slots[j].StartTime) {
			return slots[i].ResourceID.String() < slots[j].ResourceID.String()
		}
		return slots[i].StartTime.Before(slots[j].StartTime)
	})
	return slots, nil
}

func (q *availabilityQueriesImpl) eligibleResources(
	ctx context.Context,
	serviceSnap *shared.ServiceSnapshot,
	filter *uuid.UUID,
) ([]shared.ResourceSnapshot, error) {
	all, err := q.reads.ResourcesForService(ctx, serviceSnap.ID)
	if err != nil {
		return nil, err
	}

	var out []shared.ResourceSnapshot
	for _, res := range all {
		if !res.IsActive {
			continue
		}
		if filter != nil && res.ID != *filter {
			continue
		}
		out = append(out, res)
	}
	if len(out) == 0 {
		return nil, ErrNoEligibleResource
	}
	return out, nil
}
