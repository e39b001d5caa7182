package domain

import "errors"

// ErrUnauthorized is returned when a credential token cannot be verified.
var ErrUnauthorized = errors.New("unauthorized")

// ErrAlreadyIdentified is returned when an identify is attempted on a
// connection that already carries an identity. It is a protocol violation.
var ErrAlreadyIdentified = errors.New("connection already identified")

// ErrNotJoined is returned when an interaction event arrives from a
// connection that is not currently a member of any session.
var ErrNotJoined = errors.New("connection not joined to a session")

// ErrUnknownSession is returned when a join targets a workflow id that
// does not exist.
var ErrUnknownSession = errors.New("unknown session")

// ErrConnectionNotFound is returned when a connection id is not present
// in the presence registry.
var ErrConnectionNotFound = errors.New("connection not found")

// ErrUserNotFound is returned when a user id or username cannot be found in the store.
var ErrUserNotFound = errors.New("user not found")

// ErrUsernameTaken is returned when registering a username that already exists.
var ErrUsernameTaken = errors.New("username already registered")

// ErrWorkflowNotFound is returned when a workflow id cannot be found in the store.
var ErrWorkflowNotFound = errors.New("workflow not found")

// ErrOutputNotFound is returned when an output id cannot be found in the store.
var ErrOutputNotFound = errors.New("output not found")

// ErrInvalidCredentials is returned when a login fails password verification.
var ErrInvalidCredentials = errors.New("incorrect username or password")
