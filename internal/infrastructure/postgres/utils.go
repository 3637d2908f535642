package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jhoicas/stock-ledger/internal/domain"
)

// Códigos SQLSTATE que el adaptador traduce a errores de dominio.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeQueryCanceled        = "57014"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	return pgCode(err) == codeUniqueViolation
}

// translate convierte errores de PostgreSQL en errores de dominio; op da contexto al mensaje.
// Los bloqueos que expiran, las sentencias que superan statement_timeout y los deadlocks
// se reportan como contención reintentable.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	switch pgCode(err) {
	case codeLockNotAvailable, codeQueryCanceled, codeDeadlockDetected, codeSerializationFailure:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrLockTimeout, err)
	case codeCheckViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrInsufficientStock, err)
	case codeForeignKeyViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrProductNotFound, err)
	case codeUniqueViolation:
		return fmt.Errorf("%s: %w: %v", op, domain.ErrDuplicate, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// nullIfEmpty guarda NULL en columnas únicas opcionales.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
