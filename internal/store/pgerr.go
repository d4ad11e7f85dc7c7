package store

import "github.com/lib/pq"

// isConstraintViolation matches the SQLSTATE codes the Store Gateway treats
// as fatal-for-the-step rather than transient: unique, foreign-key,
// not-null and check violations.
func isConstraintViolation(err error) bool {
	pqErr, ok := err.(*pq.Error)
	if !ok {
		return false
	}
	switch pqErr.Code.Name() {
	case "unique_violation", "foreign_key_violation", "not_null_violation", "check_violation":
		return true
	default:
		return false
	}
}
