// Package safe runs third-party parser calls, turning their panics on corrupt input into errors.
package safe

import "fmt"

// Call runs fn and returns its result. A panic inside fn is returned as an error naming op.
func Call[T any](op string, fn func() (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = fmt.Errorf("%s: parser failure: %v", op, r)
		}
	}()
	return fn()
}

