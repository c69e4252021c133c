// v0
// internal/ranking/tier.go
package ranking

// Tier is a discrete workload category derived from a supervision count.
type Tier string

const (
	TierNone   Tier = "none"
	TierNormal Tier = "normal"
	TierMedium Tier = "medium"
	TierHigh   Tier = "high"
)

// Lower bounds, inclusive.
const (
	highThreshold   = 100
	mediumThreshold = 80
	normalThreshold = 50
)

// TierFor maps a supervision count to exactly one tier. Negative counts fall
// into TierNone.
func TierFor(count int64) Tier {
	switch {
	case count >= highThreshold:
		return TierHigh
	case count >= mediumThreshold:
		return TierMedium
	case count >= normalThreshold:
		return TierNormal
	default:
		return TierNone
	}
}

// Label returns the French badge text shown next to a professor, empty for
// TierNone.
func (t Tier) Label() string {
	switch t {
	case TierHigh:
		return "Élevé"
	case TierMedium:
		return "Moyen"
	case TierNormal:
		return "Normal"
	default:
		return ""
	}
}
