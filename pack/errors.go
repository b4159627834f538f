package pack

import "fmt"

// InvariantError reports an IR the hardware cannot encode. It is raised with
// panic: the scheduler must never produce such input, so there is nothing
// for a caller to recover.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "bifrost pack: " + e.Msg
}

func fatalf(format string, args ...any) {
	panic(&InvariantError{Msg: fmt.Sprintf(format, args...)})
}

func assertf(cond bool, format string, args ...any) {
	if !cond {
		fatalf(format, args...)
	}
}
