package combat

import (
	"errors"
	"fmt"
)

// ErrContract marks a caller bug: bad coordinates, unknown handles, out of
// range actions, stepping out of turn. Gameplay penalties never use it.
var ErrContract = errors.New("contract violation")

type ContractError struct {
	Op  string
	Msg string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrContract, e.Op, e.Msg)
}

func (e *ContractError) Unwrap() error { return ErrContract }

func contractErr(op, format string, args ...any) *ContractError {
	return &ContractError{Op: op, Msg: fmt.Sprintf(format, args...)}
}

// violate aborts the current operation. Callers that want an error value
// instead use Recover around the call.
func violate(op, format string, args ...any) {
	panic(contractErr(op, format, args...))
}

// Recover converts a contract panic raised inside fn into an error and
// re-panics on anything else.
func Recover(fn func()) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if ce, ok := r.(*ContractError); ok {
			err = ce
			return
		}
		panic(r)
	}()
	fn()
	return nil
}
