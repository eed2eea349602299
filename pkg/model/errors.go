package model

import "errors"

var (
	ErrInvalidArchitecture  = errors.New("invalid architecture")
	ErrArchitectureMismatch = errors.New("architecture mismatch")
)
