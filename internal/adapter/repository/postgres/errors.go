package postgres

import (
	"errors"

	"github.com/lib/pq"
	"github.com/vaultpay/wallet-core/internal/domain"
)

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	return false
}

// isConcurrencyConflict recognizes the storage-isolation failures that must
// surface as a temporary CONCURRENCY_CONFLICT rather than raw driver errors:
// serialization failures, deadlocks and lock timeouts.
func isConcurrencyConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	switch string(pqErr.Code) {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

// tagConflict converts recognized driver failures into classified domain
// errors so the failure classifier never sees raw pq errors.
func tagConflict(err error) error {
	if isConcurrencyConflict(err) {
		return domain.NewFailureError(domain.FailureConcurrencyConflict, err)
	}
	return err
}
