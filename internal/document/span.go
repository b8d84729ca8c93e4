package document

import "fmt"

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

func (s Span) Len() int {
	return s.End - s.Start
}

func (s Span) Empty() bool {
	return s.Start == s.End
}

// Contains reports whether offset falls inside the span. The end offset is included so that
// a cursor placed right after a token still reflects it.
func (s Span) Contains(offset int) bool {
	return offset >= s.Start && offset <= s.End
}

// Encloses reports whether other lies completely within s.
func (s Span) Encloses(other Span) bool {
	return other.Start >= s.Start && other.End <= s.End
}

// Cover returns the smallest span containing both s and other.
func (s Span) Cover(other Span) Span {
	if other.Start < s.Start {
		s.Start = other.Start
	}
	if other.End > s.End {
		s.End = other.End
	}
	return s
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}
