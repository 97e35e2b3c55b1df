package repository

import (
	"fmt"

	"github.com/fetchy-pm/fetchy/pkg/syntax"
)

// RepositoryError is a semantic validation failure raised by the Loader,
// carrying a located diagnostic the way SyntaxError does for the parser.
type RepositoryError struct {
	Pos     syntax.Pos
	Message string
}

func (e *RepositoryError) Error() string {
	if e.Pos == (syntax.Pos{}) {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Pos, e.Message)
}

func newRepositoryError(pos syntax.Pos, format string, args ...interface{}) *RepositoryError {
	return &RepositoryError{Pos: pos, Message: fmt.Sprintf(format, args...)}
}
