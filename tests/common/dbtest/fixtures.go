//go:build e2e

package dbtest

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bookingbot-engine/tests/common/builder"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SeedCatalog installs the builder's tenant, service and resource so API
// scenarios can book against a consistent catalog.
func SeedCatalog(pool *pgxpool.Pool, b *builder.BookingBuilder) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hours, err := json.Marshal(b.Hours())
	if err != nil {
		return fmt.Errorf("marshal operating hours: %w", err)
	}
	customFields, err := json.Marshal(b.CustomFields)
	if err != nil {
		return fmt.Errorf("marshal custom fields: %w", err)
	}
	if b.CustomFields == nil {
		customFields = []byte("[]")
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO tenants (id, name, timezone, currency, hours, cancel_cutoff_min, payment_timeout_min, slot_granularity_min)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		b.TenantID, "Kemi's Salon", b.Timezone, "NGN", hours,
		b.CancelCutoffMin, b.PaymentTimeoutMin, b.GranularityMin,
	)
	if err != nil {
		return fmt.Errorf("seed tenant: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO resources (id, tenant_id, name, kind, hours, is_active)
		VALUES ($1, $2, $3, 'staff', $4, $5)`,
		b.ResourceID, b.TenantID, b.ResourceName, hours, b.ResourceActive,
	)
	if err != nil {
		return fmt.Errorf("seed resource: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO services (id, tenant_id, name, duration_min, buffer_before_min, buffer_after_min,
		                      payment_policy, price_kobo, custom_fields, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		b.ServiceID, b.TenantID, b.ServiceName, b.DurationMin, b.BufferBeforeMin, b.BufferAfterMin,
		string(b.PaymentPolicy), b.PriceKobo, customFields, b.ServiceActive,
	)
	if err != nil {
		return fmt.Errorf("seed service: %w", err)
	}

	_, err = pool.Exec(ctx, `
		INSERT INTO service_resources (service_id, resource_id) VALUES ($1, $2)`,
		b.ServiceID, b.ResourceID,
	)
	if err != nil {
		return fmt.Errorf("seed service roster: %w", err)
	}
	return nil
}

// ResetDB truncates all mutable tables so each scenario starts clean.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `
		TRUNCATE outbox_jobs, idempotency_keys, payment_records, bookings,
		         service_resources, services, resources, tenants CASCADE`)
	if err != nil {
		return fmt.Errorf("reset database: %w", err)
	}
	return nil
}
