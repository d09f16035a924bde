package analytics

import "github.com/yumzoom/yumzoom/internal/domain/rating"

// ComputeInsights reduces records into the family summary for w.
//
// EstimatedSpending sums the menu-item price of every rating: one rating is
// treated as one purchase.  ActiveMembers counts distinct members with at
// least one rating; ratings without a member do not contribute.
func ComputeInsights(records []rating.Record, totalMembers int, w Window) FamilyInsights {
	restaurants := make(map[string]struct{}, len(records))
	members := make(map[string]struct{})
	var sum, spend float64

	for _, r := range records {
		restaurants[r.RestaurantID] = struct{}{}
		if r.HasMember() {
			members[r.FamilyMemberID] = struct{}{}
		}
		sum += float64(r.Value)
		spend += r.Price
	}

	return FamilyInsights{
		TotalRestaurants:    len(restaurants),
		TotalRatings:        len(records),
		AverageFamilyRating: round1(mean(sum, len(records))),
		EstimatedSpending:   round2(spend),
		TotalFamilyMembers:  totalMembers,
		ActiveMembers:       len(members),
		PeriodStart:         w.Start,
		PeriodEnd:           w.End,
	}
}

//Personal.AI order the ending
