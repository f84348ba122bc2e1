package exception

import "github.com/yanun0323/errors"

// RPC and wire errors
var (
	ErrArgumentNotFixedSize = errors.New("rpc: argument is not fixed-size plain data")
	ErrFrameTooLarge        = errors.New("rpc: frame exceeds 256 bytes")
	ErrFrameTooShort        = errors.New("rpc: frame shorter than declared layout")
	ErrUnknownFunction      = errors.New("rpc: unknown function id")
)
