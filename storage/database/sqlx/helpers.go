package sqlxrepos

import (
	"database/sql"
	"strings"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// unique_violation; see https://www.postgresql.org/docs/current/errcodes-appendix.html
const uniqueViolation = "23505"

// conflictOn maps a unique-constraint violation on the named constraint to the
// domain conflict error so racing inserts surface like pre-checked ones.
func conflictOn(err error, constraint string, conflictErr error) error {
	if pqErr, ok := errors.Cause(err).(*pq.Error); ok {
		if pqErr.Code == uniqueViolation && strings.Contains(pqErr.Constraint, constraint) {
			return conflictErr
		}
	}
	return err
}

// notFoundOr maps sql.ErrNoRows to the domain not-found error.
func notFoundOr(err error, notFoundErr error) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFoundErr
	}
	return err
}

// orderBy renders orderings into an ORDER BY clause, dropping fields outside
// the allowed set. Returns fallback when nothing survives.
func orderBy(orderings []core.DBOrdering, allowed map[string]bool, fallback string) string {
	clauses := make([]string, 0, len(orderings))
	for _, ord := range orderings {
		if allowed[ord.Field] {
			clauses = append(clauses, ord.String())
		}
	}
	if len(clauses) == 0 {
		return fallback
	}
	return strings.Join(clauses, ", ")
}
