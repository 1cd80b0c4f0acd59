package repository

import (
	"fmt"
	"testing"

	"github.com/go-sql-driver/mysql"
)

func TestIsConflict(t *testing.T) {
	dup := &mysql.MySQLError{Number: 1062, Message: "Duplicate entry '7-response_generation-1' for key 'uq_activations_active_slot'"}
	deadlock := &mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock; try restarting transaction"}
	lockWait := &mysql.MySQLError{Number: 1205, Message: "Lock wait timeout exceeded; try restarting transaction"}

	for _, err := range []error{dup, deadlock, lockWait} {
		if !isConflict(err) {
			t.Fatal("lost-race error not recognized as a conflict:", err)
		}
	}

	// Driver errors come back wrapped by database/sql helpers.
	if !isConflict(fmt.Errorf("claim activation slot: %w", deadlock)) {
		t.Fatal("wrapped deadlock not recognized as a conflict")
	}

	syntax := &mysql.MySQLError{Number: 1064, Message: "You have an error in your SQL syntax"}
	if isConflict(syntax) {
		t.Fatal("non-race database error must not be retried as a conflict")
	}
	if isConflict(nil) {
		t.Fatal("nil error treated as a conflict")
	}
	if isConflict(fmt.Errorf("broken pipe")) {
		t.Fatal("plain error treated as a conflict")
	}
}
