package charts

// ValidWindow reports whether w is a supported smoothing window
func ValidWindow(w int) bool {
	return w == 2 || w == 3
}

// RollingMean is a trailing mean over window points.
// The first window-1 points, and any window holding a gap, have no value.
func RollingMean(values []*float64, window int) []*float64 {
	if window <= 0 || len(values) == 0 {
		return nil
	}

	out := make([]*float64, len(values))
	for i := window - 1; i < len(values); i++ {
		sum := 0.0
		complete := true
		for _, v := range values[i-window+1 : i+1] {
			if v == nil {
				complete = false
				break
			}
			sum += *v
		}
		if complete {
			m := sum / float64(window)
			out[i] = &m
		}
	}
	return out
}
