package postgres

import "errors"

var (
	ErrFailedToBeginTx  = errors.New("failed to begin transaction")
	ErrFailedToCommitTx = errors.New("failed to commit transaction")
)
