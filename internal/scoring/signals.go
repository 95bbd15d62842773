package scoring

// Trend status labels.
const (
	TrendingUp = "TRENDING UP"
	Growing    = "GROWING"
	Stable     = "STABLE"
	Declining  = "DECLINING"
)

// Market opportunity labels.
const (
	BlueOcean = "BLUE OCEAN"
	Niche     = "NICHE"
	Saturated = "SATURATED"
)

// Signals are the human-facing labels derived alongside the scores.
type Signals struct {
	TrendStatus string
	Opportunity string
	Confidence  float64
}

// DetectSignals labels demand and market conditions.
// Confidence grows with how many of the inputs carried real data.
func DetectSignals(sales, competitors int, marginPct float64) Signals {
	var s Signals

	switch {
	case sales == 0:
	case sales >= 5000:
		s.TrendStatus = TrendingUp
	case sales >= 1000:
		s.TrendStatus = Growing
	case sales >= 100:
		s.TrendStatus = Stable
	default:
		s.TrendStatus = Declining
	}

	switch {
	case sales == 0 && competitors == 0:
	case sales >= 1000 && competitors < 20 && marginPct > 30:
		s.Opportunity = BlueOcean
	case sales >= 500 && competitors < 30:
		s.Opportunity = Niche
	case competitors > 50:
		s.Opportunity = Saturated
	}

	if sales > 0 {
		s.Confidence += 0.4
	}
	if competitors > 0 {
		s.Confidence += 0.3
	}
	if marginPct != 0 {
		s.Confidence += 0.3
	}
	s.Confidence = round(s.Confidence, 1)
	return s
}
