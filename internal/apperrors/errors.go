package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrRateNotFound indicates that the external provider could not convert
// between the requested currency pair.
var ErrRateNotFound = errors.New("exchange rate not found")

// ErrConfiguration indicates a book is missing sync configuration; the
// message is surfaced to the event source verbatim.
var ErrConfiguration = errors.New("configuration error")
