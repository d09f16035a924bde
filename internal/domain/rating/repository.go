package rating

import (
	"context"
	"time"
)

// Repository reads joined rating records.  All bounds are inclusive of from
// and exclusive of to.
type Repository interface {
	// ListByUser returns every record created by userID in [from, to),
	// newest first.
	ListByUser(ctx context.Context, userID string, from, to time.Time) ([]Record, error)

	// ListByMember returns the records userID created on behalf of memberID
	// in [from, to), newest first.
	ListByMember(ctx context.Context, userID, memberID string, from, to time.Time) ([]Record, error)
}

//Personal.AI order the ending
