package host

// Recorder is a Dispatcher that keeps every request in memory. Scenario
// runs and tests use it to stand in for a real interpreter host.
type Recorder struct {
	Requests []CodeRequest
	// Down makes Dispatch fail with ErrUnavailable.
	Down bool
}

// Dispatch records req.
func (r *Recorder) Dispatch(req CodeRequest) error {
	if r.Down {
		return ErrUnavailable
	}
	r.Requests = append(r.Requests, req)
	return nil
}

// Last returns the most recent request.
func (r *Recorder) Last() (CodeRequest, bool) {
	if len(r.Requests) == 0 {
		return CodeRequest{}, false
	}
	return r.Requests[len(r.Requests)-1], true
}

// Reset forgets recorded requests.
func (r *Recorder) Reset() {
	r.Requests = nil
}
