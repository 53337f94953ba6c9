package sql

import (
	"fmt"
)

// QueryError is returned for every validation failure: bad names, wrong arguments, clause
// ordering, missing required values, and an exceeded reconnect budget.
type QueryError struct {
	Message string
}

func (qe *QueryError) Error() string {
	return qe.Message
}

func Errorf(format string, args ...interface{}) error {
	return &QueryError{Message: fmt.Sprintf(format, args...)}
}
