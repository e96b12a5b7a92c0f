package custody

import (
	"errors"
	"fmt"
)

// Class groups error codes by the kind of precondition that failed.
type Class string

const (
	ClassValidation    Class = "validation"
	ClassState         Class = "state"
	ClassAuthorization Class = "authorization"
	ClassTransfer      Class = "transfer"
)

// Error is a lifecycle failure. Two Errors match under errors.Is when their
// codes are equal, so wrapped sentinels compare as expected.
type Error struct {
	Class  Class
	Code   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Class, e.Code)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

var (
	ErrInvalidSlug           = &Error{Class: ClassValidation, Code: "InvalidSlug"}
	ErrInvalidAcceptedAmount = &Error{Class: ClassValidation, Code: "InvalidAcceptedAmount"}
	ErrInvalidFeeRate        = &Error{Class: ClassValidation, Code: "InvalidFeeRate"}

	ErrAlreadyExists      = &Error{Class: ClassState, Code: "AlreadyExists"}
	ErrDuplicateDeposit   = &Error{Class: ClassState, Code: "DuplicateDeposit"}
	ErrNothingToWithdraw  = &Error{Class: ClassState, Code: "NothingToWithdraw"}
	ErrPoolNotFound       = &Error{Class: ClassState, Code: "PoolNotFound"}
	ErrArithmeticOverflow = &Error{Class: ClassState, Code: "ArithmeticOverflow"}

	ErrCallerNotAdministrator = &Error{Class: ClassAuthorization, Code: "CallerNotAdministrator"}
	ErrVaultMismatch          = &Error{Class: ClassAuthorization, Code: "VaultMismatch"}
	ErrAssetMismatch          = &Error{Class: ClassAuthorization, Code: "AssetMismatch"}
	ErrUnauthorized           = &Error{Class: ClassAuthorization, Code: "Unauthorized"}

	ErrTransferFailed = &Error{Class: ClassTransfer, Code: "TransferFailed"}
)

// fail returns a copy of sentinel carrying detail and an optional cause.
func fail(sentinel *Error, detail string, cause error) error {
	return &Error{Class: sentinel.Class, Code: sentinel.Code, Detail: detail, Err: cause}
}

func transferFailed(leg string, cause error) error {
	return fail(ErrTransferFailed, leg, cause)
}

// ClassOf reports the class of a lifecycle error, or "" for other errors.
func ClassOf(err error) Class {
	var e *Error
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}
