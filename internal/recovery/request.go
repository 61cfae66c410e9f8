package recovery

import "slices"

// Request is one install or remove invocation. The machine owns it for the
// duration of Run.
type Request struct {
	Packages      []string
	BackendFlags  []string
	AssumeYes     bool
	DryRun        bool
	SyncRepos     bool
	Recursive     bool
	RemoveOrphans bool
	State         State
}

// NewInstallRequest starts in Install, or in SystemUpdate / SyncMetadata
// when an update was asked for first
func NewInstallRequest(pkgs []string, update, updateTooling bool) *Request {
	kind := Install
	switch {
	case updateTooling:
		kind = SyncMetadata
	case update:
		kind = SystemUpdate
	}
	return &Request{Packages: dedupe(pkgs), SyncRepos: true, State: State{Kind: kind}}
}

// NewRemoveRequest starts in Remove
func NewRemoveRequest(pkgs []string) *Request {
	return &Request{Packages: dedupe(pkgs), State: State{Kind: Remove}}
}

func (r *Request) has(pkg string) bool {
	return slices.Contains(r.Packages, pkg)
}

func (r *Request) drop(pkg string) {
	r.Packages = slices.DeleteFunc(r.Packages, func(p string) bool { return p == pkg })
}

// add appends pkgs not already present and reports how many were added
func (r *Request) add(pkgs ...string) int {
	n := 0
	for _, p := range pkgs {
		if p == "" || r.has(p) {
			continue
		}
		r.Packages = append(r.Packages, p)
		n++
	}
	return n
}

func dedupe(pkgs []string) []string {
	out := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		if p != "" && !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	return out
}
