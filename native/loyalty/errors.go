package loyalty

import "errors"

var (
	ErrBrandNotFound       = errors.New("loyalty: caller has no registered brand")
	ErrAlreadyCreated      = errors.New("loyalty: brand token already created")
	ErrTokenNotFound       = errors.New("loyalty: brand token not found")
	ErrInsufficientAmount  = errors.New("loyalty: insufficient pool amount")
	ErrInsufficientBalance = errors.New("loyalty: insufficient credit balance")
	ErrInvalidAmount       = errors.New("loyalty: invalid amount")
	ErrNotSupportedYet     = errors.New("loyalty: redemption against tokenless brand not supported yet")
)
