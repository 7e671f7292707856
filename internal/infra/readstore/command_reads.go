package readstore

import (
	"context"
	"encoding/json"
	"time"

	"bookingbot-engine/internal/domain/catalog"
	"bookingbot-engine/internal/domain/resource"
	"bookingbot-engine/internal/domain/schedule"
	"bookingbot-engine/internal/domain/tenant"
	"bookingbot-engine/internal/infra"
	"bookingbot-engine/internal/infra/db"
	"bookingbot-engine/internal/pkg/pgconv"
	"bookingbot-engine/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// CommandReadStore serves the write side's validation reads directly from
// the primary tables; there is no separate read model to drift. Rows are
// hydrated through the domain constructors before snapshotting, so a
// malformed record fails loudly here instead of producing a silently
// inconsistent snapshot.
type CommandReadStore struct {
	db db.DBTX
}

func NewCommandReadStore(dbtx db.DBTX) *CommandReadStore {
	return &CommandReadStore{db: dbtx}
}

const selectTenantSQL = `
SELECT id, name, timezone, currency, hours,
       cancel_cutoff_min, payment_timeout_min, slot_granularity_min
FROM tenants
WHERE id = $1`

func (s *CommandReadStore) TenantByID(ctx context.Context, id uuid.UUID) (*shared.TenantSnapshot, error) {
	var (
		tid                          pgtype.UUID
		name, timezone, currency     string
		hoursRaw                     []byte
		cutoffMin, timeoutMin, grain int
	)
	err := s.db.QueryRow(ctx, selectTenantSQL, pgconv.UUIDToPgtype(id)).Scan(
		&tid, &name, &timezone, &currency, &hoursRaw,
		&cutoffMin, &timeoutMin, &grain,
	)
	if err != nil {
		return nil, wrapRead("select tenant", err)
	}
	hours, err := decodeHours(hoursRaw)
	if err != nil {
		return nil, err
	}
	agg, err := tenant.NewTenant(
		pgconv.UUIDFromPgtype(tid), name, timezone, currency, hours,
		tenant.CancellationPolicy{Cutoff: time.Duration(cutoffMin) * time.Minute},
		time.Duration(timeoutMin)*time.Minute,
		time.Duration(grain)*time.Minute,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("tenant record", err)
	}
	return &shared.TenantSnapshot{
		ID:                 agg.ID(),
		Name:               agg.Name(),
		Timezone:           agg.Timezone().String(),
		Currency:           agg.Currency(),
		Hours:              agg.Hours(),
		CancelCutoffMin:    int(agg.CancelPolicy().Cutoff / time.Minute),
		PaymentTimeoutMin:  int(agg.PaymentTimeout() / time.Minute),
		SlotGranularityMin: int(agg.SlotGranularity() / time.Minute),
	}, nil
}

const selectServiceSQL = `
SELECT s.id, s.tenant_id, s.name, s.duration_min, s.buffer_before_min, s.buffer_after_min,
       s.payment_policy, s.price_kobo, s.custom_fields, s.is_active,
       COALESCE(array_agg(sr.resource_id) FILTER (WHERE sr.resource_id IS NOT NULL), '{}') AS resource_ids
FROM services s
LEFT JOIN service_resources sr ON sr.service_id = s.id
WHERE s.tenant_id = $1 AND s.id = $2
GROUP BY s.id`

func (s *CommandReadStore) ServiceByID(ctx context.Context, tenantID, id uuid.UUID) (*shared.ServiceSnapshot, error) {
	var (
		sid, tid                               pgtype.UUID
		name, policy                           string
		durationMin, bufBeforeMin, bufAfterMin int
		priceKobo                              int64
		fieldsRaw                              []byte
		isActive                               bool
		ids                                    []pgtype.UUID
	)
	err := s.db.QueryRow(ctx, selectServiceSQL, pgconv.UUIDToPgtype(tenantID), pgconv.UUIDToPgtype(id)).Scan(
		&sid, &tid, &name, &durationMin, &bufBeforeMin, &bufAfterMin,
		&policy, &priceKobo, &fieldsRaw, &isActive, &ids,
	)
	if err != nil {
		return nil, wrapRead("select service", err)
	}
	var customFields []catalog.CustomField
	if len(fieldsRaw) > 0 {
		if err := json.Unmarshal(fieldsRaw, &customFields); err != nil {
			return nil, infra.WrapRepoErr("unmarshal custom fields", err)
		}
	}
	resourceIDs := make([]uuid.UUID, 0, len(ids))
	for _, rid := range ids {
		resourceIDs = append(resourceIDs, pgconv.UUIDFromPgtype(rid))
	}
	agg, err := catalog.NewService(
		pgconv.UUIDFromPgtype(sid), pgconv.UUIDFromPgtype(tid), name,
		durationMin, bufBeforeMin, bufAfterMin,
		catalog.PaymentPolicy(policy), priceKobo, resourceIDs, customFields,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("service record", err)
	}
	if !isActive {
		agg.Deactivate()
	}
	return &shared.ServiceSnapshot{
		ID:              agg.ID(),
		TenantID:        agg.TenantID(),
		Name:            agg.Name(),
		DurationMin:     agg.DurationMin(),
		BufferBeforeMin: agg.BufferBeforeMin(),
		BufferAfterMin:  agg.BufferAfterMin(),
		PaymentPolicy:   agg.PaymentPolicy(),
		PriceKobo:       agg.PriceKobo(),
		CustomFields:    agg.CustomFields(),
		ResourceIDs:     agg.EligibleResources(),
		IsActive:        agg.IsActive(),
	}, nil
}

const selectResourceSQL = `
SELECT id, tenant_id, name, kind, hours, is_active
FROM resources
WHERE tenant_id = $1 AND id = $2`

func (s *CommandReadStore) ResourceByID(ctx context.Context, tenantID, id uuid.UUID) (*shared.ResourceSnapshot, error) {
	row := s.db.QueryRow(ctx, selectResourceSQL, pgconv.UUIDToPgtype(tenantID), pgconv.UUIDToPgtype(id))
	snap, err := scanResource(row)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// Resources keep the service's catalog ordering so "any available" picks
// deterministically.
const selectServiceResourcesSQL = `
SELECT r.id, r.tenant_id, r.name, r.kind, r.hours, r.is_active
FROM resources r
JOIN service_resources sr ON sr.resource_id = r.id
WHERE sr.service_id = $1
ORDER BY r.created_at, r.id`

func (s *CommandReadStore) ResourcesForService(ctx context.Context, serviceID uuid.UUID) ([]shared.ResourceSnapshot, error) {
	rows, err := s.db.Query(ctx, selectServiceResourcesSQL, pgconv.UUIDToPgtype(serviceID))
	if err != nil {
		return nil, wrapRead("select service resources", err)
	}
	defer rows.Close()

	var out []shared.ResourceSnapshot
	for rows.Next() {
		snap, err := scanResource(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRead("select service resources", err)
	}
	return out, nil
}

const selectBusySlotsSQL = `
SELECT claim_start, claim_end
FROM bookings
WHERE resource_id = $1
  AND status IN ('requested', 'pending_payment', 'confirmed')
  AND claim_start < $3
  AND claim_end > $2
ORDER BY claim_start`

func (s *CommandReadStore) BusySlots(ctx context.Context, resourceID uuid.UUID, from, to time.Time) ([]schedule.TimeSlot, error) {
	rows, err := s.db.Query(ctx, selectBusySlotsSQL,
		pgconv.UUIDToPgtype(resourceID), pgconv.TimeToPgtype(from), pgconv.TimeToPgtype(to))
	if err != nil {
		return nil, wrapRead("select busy slots", err)
	}
	defer rows.Close()

	var out []schedule.TimeSlot
	for rows.Next() {
		var start, end pgtype.Timestamptz
		if err := rows.Scan(&start, &end); err != nil {
			return nil, wrapRead("scan busy slot", err)
		}
		slot, err := schedule.NewTimeSlot(pgconv.TimeFromPgtype(start), pgconv.TimeFromPgtype(end))
		if err != nil {
			return nil, infra.WrapRepoErr("busy slot interval", err)
		}
		out = append(out, slot)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapRead("select busy slots", err)
	}
	return out, nil
}

const selectIdempotencySQL = `
SELECT key, tenant_id, status, request_hash, result_booking_id, expires_at
FROM idempotency_keys
WHERE key = $1 AND tenant_id = $2`

func (s *CommandReadStore) IdempotencyByKey(ctx context.Context, key, tenantID uuid.UUID) (*shared.IdempotencyRecord, error) {
	var (
		k, tid    pgtype.UUID
		rec       shared.IdempotencyRecord
		bookingID pgtype.UUID
		expiresAt pgtype.Timestamptz
	)
	err := s.db.QueryRow(ctx, selectIdempotencySQL,
		pgconv.UUIDToPgtype(key), pgconv.UUIDToPgtype(tenantID)).Scan(
		&k, &tid, &rec.Status, &rec.RequestHash, &bookingID, &expiresAt,
	)
	if err != nil {
		return nil, wrapRead("select idempotency key", err)
	}
	rec.Key = pgconv.UUIDFromPgtype(k)
	rec.TenantID = pgconv.UUIDFromPgtype(tid)
	rec.ResultBookingID = pgconv.UUIDPtrFromPgtype(bookingID)
	rec.ExpiresAt = pgconv.TimeFromPgtype(expiresAt)
	return &rec, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*shared.ResourceSnapshot, error) {
	var (
		id, tid    pgtype.UUID
		name, kind string
		hoursRaw   []byte
		isActive   bool
	)
	if err := row.Scan(&id, &tid, &name, &kind, &hoursRaw, &isActive); err != nil {
		return nil, wrapRead("select resource", err)
	}
	hours, err := decodeHours(hoursRaw)
	if err != nil {
		return nil, err
	}
	agg, err := resource.NewResource(
		pgconv.UUIDFromPgtype(id), pgconv.UUIDFromPgtype(tid),
		name, resource.Kind(kind), hours,
	)
	if err != nil {
		return nil, infra.WrapRepoErr("resource record", err)
	}
	if !isActive {
		agg.Deactivate()
	}
	return &shared.ResourceSnapshot{
		ID:       agg.ID(),
		TenantID: agg.TenantID(),
		Name:     agg.Name(),
		Kind:     string(agg.Kind()),
		Hours:    agg.Hours(),
		IsActive: agg.IsActive(),
	}, nil
}

// decodeHours reads the jsonb week schedule. Weekday keys are the integer
// values of time.Weekday (0 = Sunday).
func decodeHours(raw []byte) (schedule.WeekSchedule, error) {
	if len(raw) == 0 {
		return schedule.WeekSchedule{}, nil
	}
	var ws schedule.WeekSchedule
	if err := json.Unmarshal(raw, &ws); err != nil {
		return nil, infra.WrapRepoErr("unmarshal operating hours", err)
	}
	return ws, nil
}

func wrapRead(msg string, err error) error {
	if pgconv.IsNoRows(err) {
		return infra.WrapRepoErr(msg, err, infra.KindNotFound)
	}
	return infra.WrapRepoErr(msg, err)
}
