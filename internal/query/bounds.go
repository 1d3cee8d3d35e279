package query

import (
	"strconv"
	"strings"

	"github.com/punjabready/portal-api/internal/geo"
	"github.com/punjabready/portal-api/pkg/apperror"
	"gorm.io/gorm"
)

// MissingBoundsMessage is returned when any edge of a bounds query is absent.
const MissingBoundsMessage = "Please provide all bounds parameters"

// Bounds is a validated rectangular viewport in degrees.
type Bounds struct {
	North, South, East, West float64
}

// ParseBounds validates the four raw edges of a bounds query.
func ParseBounds(north, south, east, west string) (Bounds, error) {
	raw := []struct {
		name  string
		value string
		limit float64
	}{
		{"north", north, 90},
		{"south", south, 90},
		{"east", east, 180},
		{"west", west, 180},
	}

	var missing, invalid []apperror.FieldError
	vals := make([]float64, len(raw))
	for i, r := range raw {
		v := strings.TrimSpace(r.value)
		if v == "" {
			missing = append(missing, apperror.FieldError{Field: r.name, Message: r.name + " is required"})
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			invalid = append(invalid, apperror.FieldError{Field: r.name, Message: r.name + " must be a number"})
			continue
		}
		if f < -r.limit || f > r.limit {
			invalid = append(invalid, apperror.FieldError{
				Field:   r.name,
				Message: r.name + " must be between -" + strconv.FormatFloat(r.limit, 'f', -1, 64) + " and " + strconv.FormatFloat(r.limit, 'f', -1, 64),
			})
			continue
		}
		vals[i] = f
	}
	if len(missing) > 0 {
		return Bounds{}, apperror.Validation(MissingBoundsMessage, missing...)
	}
	if len(invalid) > 0 {
		return Bounds{}, apperror.Validation("Invalid bounds parameters", invalid...)
	}

	b := Bounds{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
	if b.North < b.South {
		invalid = append(invalid, apperror.FieldError{Field: "north", Message: "north must not be less than south"})
	}
	if b.East < b.West {
		invalid = append(invalid, apperror.FieldError{Field: "east", Message: "east must not be less than west"})
	}
	if len(invalid) > 0 {
		return Bounds{}, apperror.Validation("Invalid bounds parameters", invalid...)
	}
	return b, nil
}

// Polygon returns the closed counter-clockwise ring of the viewport.
func (b Bounds) Polygon() geo.Polygon {
	return geo.Rectangle(b.West, b.South, b.East, b.North)
}

func (b Bounds) Envelope() geo.Envelope {
	return b.Polygon().Envelope()
}

// Scope keeps rows whose stored envelope lies inside the viewport. It is a
// candidate filter; callers re-check exact containment.
func (b Bounds) Scope() func(*gorm.DB) *gorm.DB {
	e := b.Envelope()
	return func(db *gorm.DB) *gorm.DB {
		return db.
			Where("min_lng >= ? AND max_lng <= ?", e.MinLng, e.MaxLng).
			Where("min_lat >= ? AND max_lat <= ?", e.MinLat, e.MaxLat)
	}
}
