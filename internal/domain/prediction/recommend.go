package prediction

const insufficientData = "Insufficient data for recommendations"

// Recommend returns care recommendations for the latest kidney reading.
// The result depends on k alone.
func Recommend(k *KidneyReading) []string {
	if k == nil {
		return []string{insufficientData}
	}

	var recs []string
	switch egfr := k.EGFR; {
	case egfr < 15:
		recs = []string{
			"Immediate nephrology consultation required",
			"Prepare for renal replacement therapy",
			"Strict dietary and fluid restrictions",
		}
	case egfr < 30:
		recs = []string{
			"Urgent nephrology referral needed",
			"Consider dialysis preparation",
			"Monitor for complications",
		}
	case egfr < 60:
		recs = []string{
			"Regular nephrology follow-up",
			"Monitor blood pressure closely",
			"Protein restriction may be needed",
		}
	case egfr < 90:
		recs = []string{
			"Annual kidney function monitoring",
			"Blood pressure control",
			"Maintain healthy lifestyle",
		}
	default:
		recs = []string{
			"Continue regular health checkups",
			"Maintain healthy diet and exercise",
			"Monitor blood pressure",
		}
	}

	if k.SystolicBP != nil && *k.SystolicBP > 140 {
		recs = append(recs, "Blood pressure management needed")
	}
	// Literal threshold on the stored value, no unit conversion.
	if k.Proteinuria != nil && *k.Proteinuria > 1 {
		recs = append(recs, "Consider protein intake reduction")
	}
	if k.Creatinine > 2.0 {
		recs = append(recs, "Monitor kidney function closely")
	}
	return recs
}
