package service

// Overall quality bands stored when the source leaves the field blank.
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

const (
	highRatingFloor    = 50
	highTrafficFloor   = 10_000
	mediumRatingFloor  = 30
	mediumTrafficFloor = 1_000
)

// DeriveOverallQuality grades a website from its domain rating and monthly traffic.
// It returns "" when neither signal is known.
func DeriveOverallQuality(domainRating *float64, traffic *int64) string {
	if domainRating == nil && traffic == nil {
		return ""
	}

	var (
		rating float64
		visits int64
	)
	if domainRating != nil {
		rating = *domainRating
	}
	if traffic != nil {
		visits = *traffic
	}

	switch {
	case rating >= highRatingFloor && visits >= highTrafficFloor:
		return QualityHigh
	case rating >= mediumRatingFloor || visits >= mediumTrafficFloor:
		return QualityMedium
	default:
		return QualityLow
	}
}
