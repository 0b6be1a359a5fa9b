package models

import "errors"

var ErrUnknownClass = errors.New("unknown ship class")
