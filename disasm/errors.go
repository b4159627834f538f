package disasm

import "fmt"

// MalformedError reports input the decoder cannot make sense of.
type MalformedError struct {
	Offset int // quadword of the offending clause
	Msg    string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed clause at quadword %d: %s", e.Offset, e.Msg)
}

func malformed(offset int, format string, args ...any) {
	panic(&MalformedError{Offset: offset, Msg: fmt.Sprintf(format, args...)})
}

// recoverMalformed turns a MalformedError panic into an error. Other
// panics propagate.
func recoverMalformed(err *error) {
	r := recover()
	if r == nil {
		return
	}
	if me, ok := r.(*MalformedError); ok {
		*err = me
		return
	}
	panic(r)
}
