package httpapi

import "runtime/debug"

func stackTrace() []byte {
	return debug.Stack()
}
