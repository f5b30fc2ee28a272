package glucose

// RangeStatus is the display classification of a single value.
type RangeStatus string

const (
	RangeLow    RangeStatus = "low"
	RangeNormal RangeStatus = "normal"
	RangeHigh   RangeStatus = "high"
)

// ClassifyRange determines the range status for a glucose value.
func ClassifyRange(value, low, high float64) RangeStatus {
	if value < low {
		return RangeLow
	}
	if value > high {
		return RangeHigh
	}
	return RangeNormal
}

// Advice returns a short guidance line for the current range and trend.
func Advice(status RangeStatus, trend Trend) string {
	switch status {
	case RangeLow:
		if trend == TrendFalling {
			return "Glucose is low and still falling. Take fast-acting carbohydrates now and recheck in 15 minutes."
		}
		return "Glucose is below range. Consider a small snack and recheck soon."
	case RangeHigh:
		if trend == TrendRising {
			return "Glucose is high and still rising. Follow your correction plan and stay hydrated."
		}
		return "Glucose is above range. Avoid extra carbohydrates and keep monitoring."
	}

	switch trend {
	case TrendRising:
		return "In range but rising. Keep an eye on the next readings."
	case TrendFalling:
		return "In range but falling. Keep a snack nearby."
	default:
		return "In range and steady. Keep up the current routine."
	}
}
