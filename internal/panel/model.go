package panel

import (
	"time"

	"github.com/google/uuid"
)

// Panel represents a row in the panel_models table: one solar-panel model in
// a catalog owned by exactly one user.
type Panel struct {
	ID           uuid.UUID
	OwnerID      int64
	Name         string
	Capacity     float64 // kWp
	Efficiency   float64 // percent, (0, 100]
	Manufacturer string
	Type         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewPanel holds the fields needed to insert a panel model.
// A zero ID is replaced by a freshly generated one.
type NewPanel struct {
	ID           uuid.UUID
	OwnerID      int64
	Name         string
	Capacity     float64
	Efficiency   float64
	Manufacturer string
	Type         string
}

// ListFilter narrows a catalog listing. All set filters must match.
type ListFilter struct {
	Manufacturer  *string  // exact match
	MinCapacity   *float64 // inclusive
	MinEfficiency *float64 // inclusive
}

// Matches reports whether p passes every set filter.
func (f ListFilter) Matches(p Panel) bool {
	if f.Manufacturer != nil && p.Manufacturer != *f.Manufacturer {
		return false
	}
	if f.MinCapacity != nil && p.Capacity < *f.MinCapacity {
		return false
	}
	if f.MinEfficiency != nil && p.Efficiency < *f.MinEfficiency {
		return false
	}
	return true
}

// UpdateFields holds the mutable fields of a panel model.
// Nil fields are not updated.
type UpdateFields struct {
	Name         *string
	Capacity     *float64
	Efficiency   *float64
	Manufacturer *string
	Type         *string
}

// IsEmpty reports whether no field is set.
func (f UpdateFields) IsEmpty() bool {
	return f.Name == nil && f.Capacity == nil && f.Efficiency == nil &&
		f.Manufacturer == nil && f.Type == nil
}

// Apply returns a copy of p with the set fields replaced.
func (f UpdateFields) Apply(p Panel) Panel {
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.Capacity != nil {
		p.Capacity = *f.Capacity
	}
	if f.Efficiency != nil {
		p.Efficiency = *f.Efficiency
	}
	if f.Manufacturer != nil {
		p.Manufacturer = *f.Manufacturer
	}
	if f.Type != nil {
		p.Type = *f.Type
	}
	return p
}
