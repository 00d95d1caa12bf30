package websocket

// Verdict is the outcome of running a Matcher. Err carries the diagnostic
// for a failed run and is nil when Passed.
type Verdict struct {
	Passed bool
	Err    error
}

// String returns "passed" or the failure diagnostic.
func (v Verdict) String() string {
	if v.Passed {
		return "passed"
	}
	if v.Err == nil {
		return "failed"
	}
	return "failed: " + v.Err.Error()
}
