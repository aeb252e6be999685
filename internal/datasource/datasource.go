// Package datasource provides clients for the remote services that
// enrich variants with annotations.
package datasource

import "fmt"

// ServiceError reports a failed call to a remote annotation service:
// either the request never completed, or the service answered with a
// non-2xx status.
type ServiceError struct {
	Service string // service name, e.g. "vep" or "exac"
	Status  int    // HTTP status code, zero when the request never completed
	Body    string // response body, if any
	Err     error  // underlying transport error, if any
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s request failed: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s returned status %d: %s", e.Service, e.Status, e.Body)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}
