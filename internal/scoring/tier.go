package scoring

// Tier is the qualitative bucket derived from a suitability score.
type Tier string

const (
	TierExcellentFit      Tier = "Excellent Fit"
	TierGoodFit           Tier = "Good Fit"
	TierAverageFit        Tier = "Average Fit"
	TierChallenging       Tier = "Challenging"
	TierGrowthOpportunity Tier = "Growth Opportunity"
)

// Lower bounds are inclusive and must not change: presentation buckets rely on them.
const (
	ExcellentFitMin = 85
	GoodFitMin      = 70
	AverageFitMin   = 55
	ChallengingMin  = 40
)

// Tiers lists every tier from best to worst.
func Tiers() []Tier {
	return []Tier{TierExcellentFit, TierGoodFit, TierAverageFit, TierChallenging, TierGrowthOpportunity}
}

func TierFor(score int) Tier {
	switch {
	case score >= ExcellentFitMin:
		return TierExcellentFit
	case score >= GoodFitMin:
		return TierGoodFit
	case score >= AverageFitMin:
		return TierAverageFit
	case score >= ChallengingMin:
		return TierChallenging
	default:
		return TierGrowthOpportunity
	}
}
