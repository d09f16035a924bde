package analytics

import (
	"sort"
	"time"

	"github.com/yumzoom/yumzoom/internal/domain/rating"
)

type restaurantAcc struct {
	id, name, cuisine string
	count             int
	sum               float64
	last              time.Time
}

// RankPopular groups records by restaurant and returns them ordered by
// visit frequency, highest first.  Restaurants with equal frequency keep the
// order in which they first appear in records.  The result holds at most
// DefaultPopularLimit entries unless WithLimit says otherwise.
func RankPopular(records []rating.Record, opts ...Option) []PopularRestaurant {
	o := buildOptions(opts)

	index := make(map[string]int)
	accs := make([]*restaurantAcc, 0)
	for _, r := range records {
		i, ok := index[r.RestaurantID]
		if !ok {
			i = len(accs)
			index[r.RestaurantID] = i
			accs = append(accs, &restaurantAcc{
				id:      r.RestaurantID,
				name:    r.RestaurantName,
				cuisine: r.Cuisine(),
			})
		}
		a := accs[i]
		a.count++
		a.sum += float64(r.Value)
		if r.CreatedAt.After(a.last) {
			a.last = r.CreatedAt
		}
	}

	out := make([]PopularRestaurant, 0, len(accs))
	for _, a := range accs {
		out = append(out, PopularRestaurant{
			RestaurantID:   a.id,
			RestaurantName: a.name,
			CuisineType:    a.cuisine,
			VisitFrequency: a.count,
			AverageRating:  round1(mean(a.sum, a.count)),
			LastVisit:      a.last,
			TotalRatings:   a.count,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].VisitFrequency > out[j].VisitFrequency
	})

	if len(out) > o.limit {
		out = out[:o.limit]
	}
	return out
}

//Personal.AI order the ending
