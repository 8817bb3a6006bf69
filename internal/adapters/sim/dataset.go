package sim

import (
	"math"
	"math/rand"
)

// PointsPerDay is one sample per minute.
const PointsPerDay = 24 * 60

// GenerateDailyDataSet builds one day of values between floor and ceiling.
// The curve bottoms out around 04:00 and peaks around 16:00, with small
// mean-reverting noise layered on top.
func GenerateDailyDataSet(floor, ceiling float64, rng *rand.Rand) []float64 {
	if ceiling < floor {
		floor, ceiling = ceiling, floor
	}
	mid := (floor + ceiling) / 2
	amp := (ceiling - floor) / 2
	noiseScale := amp * 0.05

	out := make([]float64, PointsPerDay)
	var noise float64
	for i := range out {
		phase := 2 * math.Pi * (float64(i)/PointsPerDay - 10.0/24)
		noise += -0.2*noise + rng.NormFloat64()*noiseScale
		v := mid + amp*0.9*math.Sin(phase) + noise
		out[i] = math.Min(ceiling, math.Max(floor, v))
	}
	return out
}
