package exception

import "github.com/yanun0323/errors"

// Transport errors
var (
	ErrConnectionClose  = errors.New("connection closed")
	ErrEmptyAddress     = errors.New("transport: empty address")
	ErrAlreadyListening = errors.New("transport: already listening")
	ErrNotListening     = errors.New("transport: not listening")
)
