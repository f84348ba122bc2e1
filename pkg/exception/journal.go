package exception

import "github.com/yanun0323/errors"

// Journal errors
var (
	ErrJournalClosed        = errors.New("journal: closed")
	ErrJournalEmptyPath     = errors.New("journal: empty path")
	ErrJournalTruncated     = errors.New("journal: truncated record")
	ErrJournalUnknownRecord = errors.New("journal: unknown call tag")
)
