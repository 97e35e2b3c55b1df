package archive

import "fmt"

// BinaryNotFound is returned when a BinarySelector's pattern matches zero
// archive entries.
type BinaryNotFound struct {
	Pattern string
}

func (e *BinaryNotFound) Error() string {
	return fmt.Sprintf("no archive entry matches binary selector %q", e.Pattern)
}

// AmbiguousBinary is returned when a BinarySelector's pattern matches more
// than one archive entry.
type AmbiguousBinary struct {
	Pattern    string
	Candidates []string
}

func (e *AmbiguousBinary) Error() string {
	return fmt.Sprintf("binary selector %q matches %d archive entries: %v", e.Pattern, len(e.Candidates), e.Candidates)
}
