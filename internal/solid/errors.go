package solid

import "errors"

// ErrNoInbox is returned when a profile or agent advertises no LDN inbox.
var ErrNoInbox = errors.New("no inbox advertised")

// asStatusError unwraps a *StatusError from err.
func asStatusError(err error) (*StatusError, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsNotFound reports whether err is a 404 or 410 response.
func IsNotFound(err error) bool {
	se, ok := asStatusError(err)
	return ok && (se.StatusCode == 404 || se.StatusCode == 410)
}
