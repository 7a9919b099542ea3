package video

import "errors"

// ErrValidation is returned when a boundary operation receives malformed
// input. It is always raised before any external side effect.
var ErrValidation = errors.New("invalid input")

// ErrNotFound is returned when no video exists for the given id.
var ErrNotFound = errors.New("video not found")

// ErrEntityCreation is returned when persisting a new video fails.
var ErrEntityCreation = errors.New("entity creation failed")

// ErrStorageSession is returned when the storage backend refuses to open
// an upload session. The video row is kept; see AbandonVideo.
var ErrStorageSession = errors.New("storage session failed")

// ErrPartURL is returned when issuing any part upload URL fails. The
// whole batch fails and callers must retry it in full.
var ErrPartURL = errors.New("part url issuance failed")

// ErrFinalization is returned when the storage backend rejects the part
// set on completion. The video status is left unchanged.
var ErrFinalization = errors.New("upload finalization failed")

// ErrSessionFinalized is returned when an operation targets a session
// that has already been completed or aborted.
var ErrSessionFinalized = errors.New("session already finalized")

// ErrSessionNotFound is returned when no upload session is registered
// for the given video.
var ErrSessionNotFound = errors.New("upload session not found")

// ErrDispatch is returned when handing the queued video to the compute
// job launcher fails.
var ErrDispatch = errors.New("job dispatch failed")
