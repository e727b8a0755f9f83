package ctrl

import "errors"

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller acts on another user's resources.
// Handlers report it as not found; 403 stays reserved for rejected tokens.
var ErrForbidden = errors.New("resource belongs to another user")

var ErrNoActiveDevice = errors.New("no registered device")
var ErrPushNotConfigured = errors.New("push gateway is not configured")
