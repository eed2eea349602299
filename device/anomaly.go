package device

import "math"

const defaultAnomalyThreshold = 2.0

// AnomalyScore grades how far a reading deviates from the model's
// one-step-ahead prediction for it.
type AnomalyScore struct {
	MSE       float64 `json:"mse"`
	MAE       float64 `json:"mae"`
	Score     float64 `json:"anomaly_score"`
	IsAnomaly bool    `json:"is_anomaly"`
}

func scoreAnomaly(actual, predicted []float64, threshold float64) AnomalyScore {
	var mse, mae float64
	for i := range actual {
		diff := actual[i] - predicted[i]
		mse += diff * diff
		mae += math.Abs(diff)
	}
	n := float64(len(actual))
	mse /= n
	mae /= n

	return AnomalyScore{
		MSE:       mse,
		MAE:       mae,
		Score:     mae / threshold,
		IsAnomaly: mae > threshold,
	}
}
