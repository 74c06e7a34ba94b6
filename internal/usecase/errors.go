package usecase

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindInvalidArgument
	KindInvalidState
	KindGone
	KindConflict
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not_found"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindInvalidState:
		return "invalid_state"
	case KindGone:
		return "gone"
	case KindConflict:
		return "conflict"
	case KindUpstream:
		return "upstream"
	}
	return "unknown"
}

// Error é o erro tipado devolvido pelos casos de uso.
// Message é estável e pode ir pro cliente; Err é interno e só vai pro log.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

func InvalidArgument(code, msg string) *Error {
	return &Error{Kind: KindInvalidArgument, Code: code, Message: msg}
}

func InvalidState(code, msg string) *Error {
	return &Error{Kind: KindInvalidState, Code: code, Message: msg}
}

func Gone(code, msg string) *Error {
	return &Error{Kind: KindGone, Code: code, Message: msg}
}

func Conflict(code, msg string) *Error {
	return &Error{Kind: KindConflict, Code: code, Message: msg}
}

func Upstream(code string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: code, Message: "Internal Server Error", Err: err}
}

// KindOf devolve o Kind de err, ou 0 se não for um *Error.
func KindOf(err error) Kind {
	var ue *Error
	if errors.As(err, &ue) {
		return ue.Kind
	}
	return 0
}

func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
