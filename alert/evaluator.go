package alert

// ShouldConsider reports whether an execution time crosses the alert
// threshold. Thresholds of zero or below alert on every call; that is a
// valid configuration, not an error.
func ShouldConsider(elapsedSeconds, thresholdSeconds float64) bool {
	return elapsedSeconds > thresholdSeconds
}
