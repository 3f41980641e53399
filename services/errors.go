package services

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
)

// Sentinel errors returned by the vote and reward services. Handlers map
// them to HTTP statuses with StatusForError; background jobs log and retry.
var (
	// ErrInvalidVote — the voter owns the photo.
	ErrInvalidVote = errors.New("cannot vote on your own photo")
	// ErrPhaseClosed — the contest is not in its voting phase.
	ErrPhaseClosed = errors.New("contest is not open for voting")
	// ErrInvalidValue — vote value outside 1..5.
	ErrInvalidValue = errors.New("vote value must be between 1 and 5")
	// ErrNotFound — unknown contest or photo.
	ErrNotFound = errors.New("not found")
	// ErrConflict — a row with this identity already exists.
	ErrConflict = errors.New("already recorded")
	// ErrTransient — lock timeout or storage unavailable; safe to retry.
	ErrTransient = errors.New("storage temporarily unavailable")
)

// wrapStorageError lifts low-level Postgres failures into the sentinel
// taxonomy: unique violations become ErrConflict, serialization failures,
// deadlocks and lock timeouts become ErrTransient. Anything else, including
// nil and non-Postgres errors, passes through unchanged.
func wrapStorageError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case "23505":
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case "40001", "40P01", "55P03":
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return err
}

// StatusForError maps a service error to an HTTP status code.
func StatusForError(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, ErrInvalidVote), errors.Is(err, ErrPhaseClosed), errors.Is(err, ErrInvalidValue):
		return fiber.StatusBadRequest
	case errors.Is(err, ErrConflict):
		return fiber.StatusConflict
	case errors.Is(err, ErrTransient):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}
