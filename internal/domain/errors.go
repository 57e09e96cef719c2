package domain

import "errors"

var ErrRecordNotFound = errors.New("Record not found")
var ErrInsufficientBalance = errors.New("Insufficient balance")
var ErrAccountNotActive = errors.New("Account is not active")
var ErrAccountFrozen = errors.New("Account is frozen")
var ErrAccountClosed = errors.New("Account is closed")
var ErrDestinationNotFound = errors.New("Destination account not found")
var ErrDestinationNotActive = errors.New("Destination account is not active")
var ErrNoActiveCard = errors.New("Account has no active card")
var ErrNotAccountOwner = errors.New("Account does not belong to requesting user")
var ErrRiskBlocked = errors.New("Transaction blocked by risk review")
var ErrConcurrencyConflict = errors.New("Concurrent update conflict")
var ErrCurrencyMismatch = errors.New("Account currencies do not match")
var ErrDuplicateRequest = errors.New("Duplicate request")
