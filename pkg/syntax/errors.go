package syntax

import "fmt"

// SyntaxError is a located parse diagnostic: the grammar rule violated, the
// smallest span that covers the offending token, and a human message.
type SyntaxError struct {
	Pos     Pos
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func newSyntaxError(pos Pos, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
