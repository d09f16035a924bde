package family

import "context"

// Repository reads family members.
type Repository interface {
	// ListByUser returns all members owned by userID ordered by creation time.
	ListByUser(ctx context.Context, userID string) ([]Member, error)

	// CountByUser returns the number of members owned by userID.
	CountByUser(ctx context.Context, userID string) (int, error)
}

//Personal.AI order the ending
