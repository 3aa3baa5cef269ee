package repo

import (
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-core/backend/internal/civil"
)

// pgDate encodes a calendar date for a DATE column. The zero date is NULL.
func pgDate(d civil.Date) pgtype.Date {
	if d.IsZero() {
		return pgtype.Date{}
	}
	return pgtype.Date{Time: d.Time(), Valid: true}
}

// pgDatePtr encodes an optional calendar date.
func pgDatePtr(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{}
	}
	return pgDate(*d)
}

// civilDate decodes a DATE column. pgx returns dates at UTC midnight, so the
// calendar fields are read straight off the time value.
func civilDate(d pgtype.Date) civil.Date {
	if !d.Valid {
		return civil.Date{}
	}
	return civil.Of(d.Time)
}

// civilDatePtr decodes a nullable DATE column.
func civilDatePtr(d pgtype.Date) *civil.Date {
	if !d.Valid {
		return nil
	}
	v := civilDate(d)
	return &v
}
