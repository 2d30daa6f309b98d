package auth

import "errors"

var (
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidToken   = errors.New("invalid token")
	ErrWrongTokenType = errors.New("wrong token type")
)
