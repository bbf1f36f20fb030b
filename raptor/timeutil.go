package raptor

// MinuteSweep yields each outer-loop departure time for a range-raptor
// search, from latest to earliest (spec §4.6: "for dep_time in
// (to_time - step) downto from_time step -step"), grounded on the
// teacher's GetTimePartition minute-stepping helper in utils.go.
func MinuteSweep(fromTime, toTime, step int) []int {
	if step <= 0 {
		step = DefaultDepartureStep
	}
	var times []int
	for t := toTime - step; t >= fromTime; t -= step {
		times = append(times, t)
	}
	return times
}
