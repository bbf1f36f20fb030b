// Package distribution implements the discrete probability distribution
// algebra over arrival times (spec §3 "Discrete distribution", §2
// "Distribution algebra" row). It is an optional refinement layered on
// top of a point arrival time, not required by the core RAPTOR loop.
package distribution

// Discrete is a discrete probability distribution over arrival times in
// [MinTime, MaxTime], where Density/Cumulative are sampled at one-second
// resolution starting at MinTime (spec §3 invariant: cumulative is
// non-decreasing and reaches MaxCumulativeProbability at MaxTime;
// cumulative(t < MinTime) == 0).
type Discrete struct {
	MinTime                 int
	MaxTime                 int
	MaxCumulativeProbability float64
	density                 []float64 // density[t-MinTime]
}

// New constructs a Discrete distribution from a density sampled at one
// second resolution starting at minTime. The cumulative distribution is
// derived, not stored, so RightShift/Sum never need to re-normalize it.
func New(minTime int, density []float64) *Discrete {
	maxCum := 0.0
	for _, d := range density {
		maxCum += d
	}
	return &Discrete{
		MinTime:                  minTime,
		MaxTime:                  minTime + len(density) - 1,
		MaxCumulativeProbability: maxCum,
		density:                  append([]float64(nil), density...),
	}
}

// Density returns the probability mass at time t (0 outside [MinTime, MaxTime]).
func (d *Discrete) Density(t int) float64 {
	if t < d.MinTime || t > d.MaxTime {
		return 0
	}
	return d.density[t-d.MinTime]
}

// Cumulative returns the probability mass at or before time t.
func (d *Discrete) Cumulative(t int) float64 {
	if t < d.MinTime {
		return 0
	}
	if t >= d.MaxTime {
		return d.MaxCumulativeProbability
	}
	sum := 0.0
	for i := 0; i <= t-d.MinTime; i++ {
		sum += d.density[i]
	}
	return sum
}

// RightShift returns a new distribution with every mass point moved
// forward by seconds (e.g. applying a fixed travel-time offset).
func (d *Discrete) RightShift(seconds int) *Discrete {
	return &Discrete{
		MinTime:                  d.MinTime + seconds,
		MaxTime:                  d.MaxTime + seconds,
		MaxCumulativeProbability: d.MaxCumulativeProbability,
		density:                  append([]float64(nil), d.density...),
	}
}

// Sum convolves d with other, producing the distribution of the sum of
// two independent random arrival-time offsets (e.g. wait time plus
// in-vehicle time).
func (d *Discrete) Sum(other *Discrete) *Discrete {
	minTime := d.MinTime + other.MinTime
	maxTime := d.MaxTime + other.MaxTime
	density := make([]float64, maxTime-minTime+1)
	for i, dv := range d.density {
		if dv == 0 {
			continue
		}
		for j, ov := range other.density {
			if ov == 0 {
				continue
			}
			density[i+j] += dv * ov
		}
	}
	return &Discrete{
		MinTime:                  minTime,
		MaxTime:                  maxTime,
		MaxCumulativeProbability: d.MaxCumulativeProbability * other.MaxCumulativeProbability,
		density:                  density,
	}
}
