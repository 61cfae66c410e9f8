package recovery

import "strings"

// Result is the outcome of Machine.Run
type Result struct {
	State    State
	Trace    []State
	Messages []string
	Packages []string
	Err      error
}

// Succeeded reports whether the machine completed
func (r *Result) Succeeded() bool {
	return r.State.Kind == Completed
}

// Corrections counts corrective states entered after the initial state
func (r *Result) Corrections() int {
	if len(r.Trace) == 0 {
		return 0
	}
	n := 0
	for _, st := range r.Trace[1:] {
		if st.Kind.Corrective() {
			n++
		}
	}
	return n
}

// Steps renders each traced state, naming the package of BadPackage states
func (r *Result) Steps() []string {
	steps := make([]string, len(r.Trace))
	for i, st := range r.Trace {
		steps[i] = st.Kind.String()
		if st.Kind == BadPackage {
			steps[i] = st.String()
		}
	}
	return steps
}

// TraceString renders the trace as "install -> bad-package(x) -> ..."
func (r *Result) TraceString() string {
	return strings.Join(r.Steps(), " -> ")
}
