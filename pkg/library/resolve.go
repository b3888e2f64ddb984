package library

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"lutra/pkg/action"
)

// Field names a games column an identifier can be looked up by.
type Field string

const (
	FieldID            Field = "id"
	FieldSlug          Field = "slug"
	FieldInstallerSlug Field = "installer_slug"
)

// LookupPlan returns the ordered lookup strategies for an action hint.
// First match wins; the plan is the whole policy, there is no fallback
// outside it.
//
//	rungameid   -> id
//	rungame     -> slug
//	install     -> slug, installer_slug
//	none/other  -> id, slug, installer_slug
func LookupPlan(hint action.Action) []Field {
	switch hint {
	case action.ActionRunByID:
		return []Field{FieldID}
	case action.ActionRunBySlug:
		return []Field{FieldSlug}
	case action.ActionInstall:
		return []Field{FieldSlug, FieldInstallerSlug}
	default:
		return []Field{FieldID, FieldSlug, FieldInstallerSlug}
	}
}

// GameByField looks up a single game where field equals value. Returns
// (nil, nil) when no game matches. An id lookup with a non-numeric value is
// a miss, not an error, so mixed plans can probe id first.
func (l *Library) GameByField(ctx context.Context, field Field, value string) (*Game, error) {
	var arg interface{} = value
	switch field {
	case FieldID:
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, nil
		}
		arg = id
	case FieldSlug, FieldInstallerSlug:
	default:
		return nil, fmt.Errorf("game lookup: unsupported field %q", field)
	}

	q := fmt.Sprintf(`SELECT %s FROM games WHERE %s = ? ORDER BY id LIMIT 1`, gameColumns, field)
	g, err := scanGame(l.db.QueryRowContext(ctx, q, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("game lookup by %s: %w", field, err)
	}
	return g, nil
}

// Resolve walks the lookup plan for hint and returns the first matching
// game, or (nil, nil) when nothing matches. An empty identifier resolves to
// nothing without touching the database.
func (l *Library) Resolve(ctx context.Context, identifier string, hint action.Action) (*Game, error) {
	if identifier == "" {
		return nil, nil
	}
	for _, field := range LookupPlan(hint) {
		g, err := l.GameByField(ctx, field, identifier)
		if err != nil {
			return nil, err
		}
		if g != nil {
			return g, nil
		}
	}
	return nil, nil
}
