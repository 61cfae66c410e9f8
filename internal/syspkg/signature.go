package syspkg

import "strings"

// Category is a failure class recognised in backend output
type Category int

const (
	CategoryNone Category = iota
	ToolingOutdated
	BrokenDependencyGraph
	NotFound
	NotInstalled
)

func (c Category) String() string {
	switch c {
	case ToolingOutdated:
		return "tooling-outdated"
	case BrokenDependencyGraph:
		return "broken-dependency-graph"
	case NotFound:
		return "not-found"
	case NotInstalled:
		return "not-installed"
	default:
		return "none"
	}
}

// Signature pairs a fixed output phrase with its category
type Signature struct {
	Phrase   string
	Category Category
}

// SignatureTable is an ordered list of signatures; the first match wins
type SignatureTable []Signature

// XBPSSignatures returns the phrases xbps prints for recoverable failures
func XBPSSignatures() SignatureTable {
	return SignatureTable{
		{Phrase: "package must be updated", Category: ToolingOutdated},
		{Phrase: "broken, unresolvable shlib", Category: BrokenDependencyGraph},
		{Phrase: "not found in repository pool.", Category: NotFound},
		{Phrase: "not currently installed.", Category: NotInstalled},
	}
}

// Classify returns the category of the first signature contained in text
func (t SignatureTable) Classify(text string) Category {
	for _, sig := range t {
		if strings.Contains(text, sig.Phrase) {
			return sig.Category
		}
	}
	return CategoryNone
}

// Watch returns a line handler that records the first line matching one of
// cats and asks the runner to stop. Lines are forwarded to onLine.
func (t SignatureTable) Watch(out *Outcome, onLine LineFunc, cats ...Category) func(string) bool {
	return func(line string) bool {
		if onLine != nil {
			onLine(line)
		}
		cat := t.Classify(line)
		if cat == CategoryNone {
			return true
		}
		for _, want := range cats {
			if cat == want {
				out.Category = cat
				out.Line = line
				return false
			}
		}
		return true
	}
}
