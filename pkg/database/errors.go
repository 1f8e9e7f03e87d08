package database

import (
	"strings"

	"github.com/lib/pq"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error or carries no domain meaning, in
// which case callers treat it as a storage failure.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation
	case "23503":
		if strings.Contains(pqErr.Constraint, "agent") {
			return errors.UnknownAgent(pqErr.Detail)
		}
		return errors.BadRequest("referenced record does not exist")

	// Not null violation
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "status_valid"):
		return errors.UnknownStatus(pqErr.Detail)

	case strings.Contains(constraint, "extra_hours"):
		return errors.Validation(map[string]string{
			"extra_hours": "must not be negative",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

func formatConstraintMessage(pqErr *pq.Error) string {
	switch {
	case strings.Contains(pqErr.Constraint, "agent_date"):
		return "an entry for this agent and date already exists"
	default:
		return "a record with these values already exists"
	}
}
