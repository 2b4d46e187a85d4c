package domain

import "fmt"

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// ForbiddenError represents an operation on a resource the requester does not own.
type ForbiddenError struct {
	Resource string
}

func (e ForbiddenError) Error() string {
	if e.Resource == "" {
		return "forbidden"
	}
	return fmt.Sprintf("%s is not owned by requester", e.Resource)
}

// Is enables errors.Is matching on ForbiddenError.
func (e ForbiddenError) Is(target error) bool {
	_, ok := target.(ForbiddenError)
	if ok {
		return true
	}
	_, ok = target.(*ForbiddenError)
	return ok
}

// ErrForbidden is the sentinel error for ownership violations.
var ErrForbidden = ForbiddenError{}
