package store

import "errors"

// ErrNoSession is returned by Load when no session is persisted.
var ErrNoSession = errors.New("no persisted session")
