package domain

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnknownJobType = errors.New("unknown job type")
	ErrJobTerminal    = errors.New("job already terminal")
	ErrEpisodeBusy    = errors.New("episode has an active job")
)
