package persistence

import (
	"errors"
	"strings"

	"github.com/rentnest/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm sentinel errors onto domain errors
func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.ErrAlreadyExists
	default:
		return err
	}
}

// pageBounds normalises page and size and returns limit and offset
func pageBounds(page, pageSize int) (int, int) {
	f := shared.NewPageRequest(page, pageSize)
	return f.PageSize, f.Offset()
}

// likeMatch is the operator paired with likePattern. The escape character is
// spelled out because SQLite has no default one.
const likeMatch = ` LIKE ? ESCAPE '\'`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern wraps a keyword for a case-insensitive substring LIKE against a
// LOWER() column. Wildcards typed by the user match literally.
func likePattern(keyword string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(strings.TrimSpace(keyword))) + "%"
}
