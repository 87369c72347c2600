package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrDuplicate = errors.New("duplicate submission")
var ErrBadSignature = errors.New("invalid signature")
var ErrExpired = errors.New("submission outside time window")
