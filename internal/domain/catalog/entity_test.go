//go:build unit

package catalog_test

import (
	"strings"
	"testing"
	"time"

	"bookingbot-engine/internal/domain/catalog"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validService(t *testing.T, mutate func(*serviceArgs)) (*catalog.Service, error) {
	t.Helper()
	args := &serviceArgs{
		name:          "Standard Cut",
		durationMin:   45,
		bufferAfter:   15,
		paymentPolicy: catalog.PaymentRequired,
		priceKobo:     500000,
		resources:     []uuid.UUID{uuid.New()},
	}
	if mutate != nil {
		mutate(args)
	}
	return catalog.NewService(
		uuid.New(), uuid.New(),
		args.name,
		args.durationMin, args.bufferBefore, args.bufferAfter,
		args.paymentPolicy, args.priceKobo,
		args.resources, args.fields,
	)
}

type serviceArgs struct {
	name          string
	durationMin   int
	bufferBefore  int
	bufferAfter   int
	paymentPolicy catalog.PaymentPolicy
	priceKobo     int64
	resources     []uuid.UUID
	fields        []catalog.CustomField
}

func TestNewService(t *testing.T) {
	t.Run("valid service", func(t *testing.T) {
		svc, err := validService(t, nil)
		require.NoError(t, err)

		assert.Equal(t, 45*time.Minute, svc.Duration())
		assert.Equal(t, time.Duration(0), svc.BufferBefore())
		assert.Equal(t, 15*time.Minute, svc.BufferAfter())
		assert.Equal(t, 60*time.Minute, svc.ClaimDuration())
		assert.True(t, svc.IsActive())
	})

	cases := []struct {
		name   string
		mutate func(*serviceArgs)
		errIs  error
	}{
		{name: "empty name", mutate: func(a *serviceArgs) { a.name = "  " }, errIs: catalog.ErrEmptyServiceName},
		{name: "name too long", mutate: func(a *serviceArgs) { a.name = strings.Repeat("x", catalog.MaxServiceNameLength+1) }, errIs: catalog.ErrServiceNameTooLong},
		{name: "zero duration", mutate: func(a *serviceArgs) { a.durationMin = 0 }, errIs: catalog.ErrInvalidDuration},
		{name: "negative buffer", mutate: func(a *serviceArgs) { a.bufferBefore = -5 }, errIs: catalog.ErrNegativeBuffer},
		{name: "unknown policy", mutate: func(a *serviceArgs) { a.paymentPolicy = "deferred" }, errIs: catalog.ErrInvalidPolicy},
		{name: "negative price", mutate: func(a *serviceArgs) { a.priceKobo = -1 }, errIs: catalog.ErrNegativePrice},
		{name: "paid service needs price", mutate: func(a *serviceArgs) { a.priceKobo = 0 }, errIs: catalog.ErrPriceRequired},
		{name: "free service needs no price", mutate: func(a *serviceArgs) { a.paymentPolicy = catalog.PaymentNone; a.priceKobo = 0 }},
		{name: "no eligible resources", mutate: func(a *serviceArgs) { a.resources = nil }, errIs: catalog.ErrNoEligibleResources},
		{name: "invalid custom field", mutate: func(a *serviceArgs) {
			a.fields = []catalog.CustomField{{Key: "style", Kind: catalog.FieldDropdown}}
		}, errIs: catalog.ErrDropdownNeedsOption},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validService(t, tc.mutate)
			if tc.errIs != nil {
				assert.ErrorIs(t, err, tc.errIs)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestServiceEligibility(t *testing.T) {
	chair := uuid.New()
	svc, err := validService(t, func(a *serviceArgs) { a.resources = []uuid.UUID{chair} })
	require.NoError(t, err)

	assert.True(t, svc.IsEligibleResource(chair))
	assert.False(t, svc.IsEligibleResource(uuid.New()))
}
