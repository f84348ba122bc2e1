package exception

import "github.com/yanun0323/errors"

// Queue and buffer errors
var (
	ErrQueueFull       = errors.New("queue full")
	ErrQueueClosed     = errors.New("queue closed")
	ErrInvalidCapacity = errors.New("capacity must be > 0")
	ErrBufferOverflow  = errors.New("write exceeds fixed buffer")
)
