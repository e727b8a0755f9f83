package db

import (
	"time"

	sq "github.com/Masterminds/squirrel"
	md "github.com/JMURv/fieldlog/internal/models"
)

func buildDueRemindersQuery(from, to time.Time) (string, []any, error) {
	return sq.Select(
		"r.id",
		"r.user_id",
		"u.email AS owner_email",
		"r.title",
		"r.due_date",
		"r.status",
	).
		From("records r").
		Join("users u ON u.id = r.user_id").
		Where(sq.Eq{"r.deleted_at": nil}).
		Where(sq.GtOrEq{"r.due_date": from}).
		Where(sq.LtOrEq{"r.due_date": to}).
		Where(sq.NotEq{"r.status": md.TerminalStatuses}).
		OrderBy("r.due_date", "r.id").
		PlaceholderFormat(sq.Dollar).
		ToSql()
}
