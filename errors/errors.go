package errors

import "fmt"

var (
	// ErrUnknownUser means a room was requested for a user id the
	// directory cannot resolve. Fail-closed: the caller must close
	// the connection.
	ErrUnknownUser = fmt.Errorf("unknown user")

	// ErrPersistenceFailed means a message append or status write
	// failed. The event is dropped, nothing is broadcast.
	ErrPersistenceFailed = fmt.Errorf("persistence failed")

	// ErrDirectoryCorrupt means the persisted room directory could
	// not be decoded at startup. Fatal: serving with an inconsistent
	// directory is worse than not serving.
	ErrDirectoryCorrupt = fmt.Errorf("room directory corrupt")

	ErrNotBoundToRoom = fmt.Errorf("connection not bound to room")
	ErrWorkerPanic    = fmt.Errorf("worker panic")
)
