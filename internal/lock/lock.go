// Package lock serializes attempt transitions for one user and exam.
package lock

import (
	"errors"
	"fmt"
)

var ErrTimeout = errors.New("lock wait timed out")

// AttemptKey is the lock key guarding every transition of a user's attempt on
// one exam.
func AttemptKey(userID, examID string) string {
	return fmt.Sprintf("attempt:%s:%s", userID, examID)
}
