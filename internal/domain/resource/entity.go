package resource

import (
	"errors"
	"strings"
	"time"

	"bookingbot-engine/internal/domain/schedule"

	"github.com/google/uuid"
)

var (
	ErrEmptyResourceName   = errors.New("resource name cannot be empty")
	ErrResourceNameTooLong = errors.New("resource name is too long (max 255 characters)")
	ErrInvalidKind         = errors.New("invalid resource kind")
	ErrInvalidHours        = errors.New("invalid working hours")
)

const MaxResourceNameLength = 255

// Kind distinguishes bookable entity types; all kinds share availability
// semantics (at most one booking per interval).
type Kind string

const (
	KindStaff     Kind = "staff"
	KindRoom      Kind = "room"
	KindEquipment Kind = "equipment"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindStaff, KindRoom, KindEquipment:
		return true
	default:
		return false
	}
}

// Resource is a bookable entity owned by one tenant. Its working hours may
// be narrower than the tenant's business hours, never wider in effect: a
// slot must fit both.
type Resource struct {
	id        uuid.UUID
	tenantID  uuid.UUID
	name      string
	kind      Kind
	hours     schedule.WeekSchedule
	active    bool
	createdAt time.Time
	updatedAt time.Time
}

func NewResource(id, tenantID uuid.UUID, name string, kind Kind, hours schedule.WeekSchedule) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyResourceName
	}
	if len(name) > MaxResourceNameLength {
		return nil, ErrResourceNameTooLong
	}
	if !kind.IsValid() {
		return nil, ErrInvalidKind
	}
	if err := hours.Validate(); err != nil {
		return nil, errors.Join(ErrInvalidHours, err)
	}

	return &Resource{
		id:       id,
		tenantID: tenantID,
		name:     name,
		kind:     kind,
		hours:    hours,
		active:   true,
	}, nil
}

// Deactivate removes the resource from scheduling without touching the
// bookings that already reference it.
func (r *Resource) Deactivate() {
	r.active = false
}

// WorksDuring reports whether the slot fits within the resource's working
// hours in the tenant's timezone.
func (r *Resource) WorksDuring(slot schedule.TimeSlot, loc *time.Location) bool {
	return r.hours.Covers(slot, loc)
}

func (r *Resource) ID() uuid.UUID                { return r.id }
func (r *Resource) TenantID() uuid.UUID          { return r.tenantID }
func (r *Resource) Name() string                 { return r.name }
func (r *Resource) Kind() Kind                   { return r.kind }
func (r *Resource) Hours() schedule.WeekSchedule { return r.hours }
func (r *Resource) IsActive() bool               { return r.active }
func (r *Resource) CreatedAt() time.Time         { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time         { return r.updatedAt }
