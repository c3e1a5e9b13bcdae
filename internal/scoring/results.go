package scoring

import (
	"cmp"
	"slices"
)

// SortByScore orders results from best to worst keeping input order among equal scores.
func SortByScore(results []Result) {
	slices.SortStableFunc(results, func(a, b Result) int {
		return cmp.Compare(b.Score, a.Score)
	})
}

// Bucket is the set of results sharing a tier.
type Bucket struct {
	Tier    Tier     `json:"tier"`
	Results []Result `json:"results"`
}

// GroupByTier buckets results in fixed tier order. Empty tiers are omitted.
func GroupByTier(results []Result) []Bucket {
	byTier := make(map[Tier][]Result, len(Tiers()))
	for _, r := range results {
		byTier[r.Tier] = append(byTier[r.Tier], r)
	}

	buckets := make([]Bucket, 0, len(byTier))
	for _, tier := range Tiers() {
		if items := byTier[tier]; len(items) > 0 {
			buckets = append(buckets, Bucket{Tier: tier, Results: items})
		}
	}
	return buckets
}
