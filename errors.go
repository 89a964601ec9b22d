package slotarena

import "github.com/pkg/errors"

// Contract violations. Every one of them is reported by panicking with an
// error that wraps one of these sentinels; use errors.Is on the recovered
// value to tell them apart.
var (
	ErrUninitialized      = errors.New("slotarena: arena is not bound to a type")
	ErrAlreadyInitialized = errors.New("slotarena: arena is already bound to a type")
	ErrReleased           = errors.New("slotarena: use after Release()")
	ErrTypeMismatch       = errors.New("slotarena: type does not match bound type")
	ErrSizeMismatch       = errors.New("slotarena: type size does not match element size")
	ErrIndexOutOfRange    = errors.New("slotarena: index out of range")
	ErrNegativeSize       = errors.New("slotarena: negative size")
	ErrTooLarge           = errors.New("slotarena: slot count overflows the buffer size")
	ErrUnsupportedType    = errors.New("slotarena: unsupported element type")
	ErrReentrantCall      = errors.New("slotarena: reentrant call from a lifecycle callback")
)

func violation(err error, format string, args ...any) {
	panic(errors.Wrapf(err, format, args...))
}
