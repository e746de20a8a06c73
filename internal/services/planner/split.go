package planner

// SplitPlan sizes the split needed before a buy. All values are chain units.
type SplitPlan struct {
	Requested          uint64
	ConditionalBalance uint64
	SpotBalance        uint64
	Shortfall          uint64
}

// PlanSplit returns nil when the conditional balance already covers the
// request. Otherwise the shortfall is split from spot. Whether spot covers
// the shortfall is the caller's check.
func PlanSplit(requested, conditionalBalance, spotBalance uint64) *SplitPlan {
	if requested <= conditionalBalance {
		return nil
	}
	return &SplitPlan{
		Requested:          requested,
		ConditionalBalance: conditionalBalance,
		SpotBalance:        spotBalance,
		Shortfall:          requested - conditionalBalance,
	}
}
