package kitchen

import (
	"errors"
	"fmt"
	"net/http"
)

// QueryError is returned for every failed status query: transport errors,
// non-2xx responses, and undecodable payloads. StatusCode is zero when no
// HTTP response was received.
type QueryError struct {
	OrderID    int64
	StatusCode int
	Err        error
}

func (e *QueryError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("kitchen status for order %d: HTTP %d: %v", e.OrderID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("kitchen status for order %d: %v", e.OrderID, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// IsNotFound reports whether err is a status query for an order the
// kitchen does not know about.
func IsNotFound(err error) bool {
	var qe *QueryError
	return errors.As(err, &qe) && qe.StatusCode == http.StatusNotFound
}
