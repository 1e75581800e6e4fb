package repositories

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

func hasPGCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

func isUniqueViolation(err error) bool { return hasPGCode(err, pgerrcode.UniqueViolation) }

func isForeignKeyViolation(err error) bool { return hasPGCode(err, pgerrcode.ForeignKeyViolation) }
