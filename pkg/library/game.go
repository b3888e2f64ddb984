package library

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Game is one library row. Optional text fields use "" for absent; the
// dispatcher treats Game values as read-only and all mutation goes through
// AddOrUpdate and UpdatePlayed.
type Game struct {
	ID            int64
	Name          string
	Slug          string
	InstallerSlug string
	Runner        string
	Platform      string
	Directory     string
	Installed     bool
	InstalledAt   int64   // unix seconds, 0 when never installed
	LastPlayed    int64   // unix seconds, 0 when never played
	Playtime      float64 // hours
	ConfigPath    string
	Service       string
	ServiceID     string
	Year          int
}

// GameParams holds the writable fields for AddOrUpdate. A zero ID means
// "match by slug, insert if new"; a nonzero ID updates that row.
type GameParams struct {
	ID            int64
	Name          string
	Slug          string
	InstallerSlug string
	Runner        string
	Platform      string
	Directory     string
	Installed     bool
	InstalledAt   int64
	LastPlayed    int64
	Playtime      float64
	ConfigPath    string
	Service       string
	ServiceID     string
	Year          int
}

// Params copies a Game into GameParams so callers can tweak a few fields and
// write the row back.
func (g *Game) Params() GameParams {
	return GameParams{
		ID:            g.ID,
		Name:          g.Name,
		Slug:          g.Slug,
		InstallerSlug: g.InstallerSlug,
		Runner:        g.Runner,
		Platform:      g.Platform,
		Directory:     g.Directory,
		Installed:     g.Installed,
		InstalledAt:   g.InstalledAt,
		LastPlayed:    g.LastPlayed,
		Playtime:      g.Playtime,
		ConfigPath:    g.ConfigPath,
		Service:       g.Service,
		ServiceID:     g.ServiceID,
		Year:          g.Year,
	}
}

// Filter narrows a Games listing.
type Filter struct {
	InstalledOnly bool
	Service       string
}

// gameColumns is the canonical SELECT list; keep scanGame in sync.
const gameColumns = `id, name, slug,
       COALESCE(installer_slug, '') AS installer_slug,
       COALESCE(runner, '') AS runner,
       COALESCE(platform, '') AS platform,
       COALESCE(directory, '') AS directory,
       installed,
       COALESCE(installed_at, 0) AS installed_at,
       COALESCE(lastplayed, 0) AS lastplayed,
       playtime,
       COALESCE(configpath, '') AS configpath,
       COALESCE(service, '') AS service,
       COALESCE(service_id, '') AS service_id,
       COALESCE(year, 0) AS year`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanGame(row rowScanner) (*Game, error) {
	var g Game
	err := row.Scan(
		&g.ID, &g.Name, &g.Slug, &g.InstallerSlug, &g.Runner, &g.Platform,
		&g.Directory, &g.Installed, &g.InstalledAt, &g.LastPlayed,
		&g.Playtime, &g.ConfigPath, &g.Service, &g.ServiceID, &g.Year,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Games lists the library, alphabetical by slug.
func (l *Library) Games(ctx context.Context, f Filter) ([]Game, error) {
	var conditions []string
	var args []interface{}

	if f.InstalledOnly {
		conditions = append(conditions, "installed = 1")
	}
	if f.Service != "" {
		conditions = append(conditions, "service = ?")
		args = append(args, f.Service)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	q := fmt.Sprintf(`SELECT %s FROM games %s ORDER BY slug COLLATE NOCASE`, gameColumns, whereClause)

	rows, err := l.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("game list: %w", err)
	}
	defer rows.Close()

	var games []Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("game list scan: %w", err)
		}
		games = append(games, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("game list rows: %w", err)
	}
	return games, nil
}

// AddOrUpdate writes a game row. With a nonzero ID it updates that row;
// otherwise it matches by slug and inserts when no row exists. A missing
// slug is derived from the name. Returns the row id.
func (l *Library) AddOrUpdate(ctx context.Context, p GameParams) (int64, error) {
	if p.Slug == "" {
		if p.Name == "" {
			return 0, fmt.Errorf("game add: slug or name required")
		}
		p.Slug = Slugify(p.Name)
	}
	if p.Name == "" {
		p.Name = p.Slug
	}

	id := p.ID
	if id == 0 {
		err := l.db.QueryRowContext(ctx, `SELECT id FROM games WHERE slug = ?`, p.Slug).Scan(&id)
		if err != nil && err != sql.ErrNoRows {
			return 0, fmt.Errorf("game lookup by slug: %w", err)
		}
	}

	if id != 0 {
		res, err := l.db.ExecContext(ctx,
			`UPDATE games
			 SET name = ?, slug = ?, installer_slug = ?, runner = ?, platform = ?,
			     directory = ?, installed = ?, installed_at = ?, lastplayed = ?,
			     playtime = ?, configpath = ?, service = ?, service_id = ?, year = ?
			 WHERE id = ?`,
			p.Name, p.Slug, p.InstallerSlug, p.Runner, p.Platform,
			p.Directory, p.Installed, p.InstalledAt, p.LastPlayed,
			p.Playtime, p.ConfigPath, p.Service, p.ServiceID, p.Year, id,
		)
		if err != nil {
			return 0, fmt.Errorf("game update: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("game update rows: %w", err)
		}
		if n == 0 {
			return 0, fmt.Errorf("game update: no game with id %d", id)
		}
		return id, nil
	}

	res, err := l.db.ExecContext(ctx,
		`INSERT INTO games (name, slug, installer_slug, runner, platform, directory,
		                    installed, installed_at, lastplayed, playtime, configpath,
		                    service, service_id, year)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Slug, p.InstallerSlug, p.Runner, p.Platform, p.Directory,
		p.Installed, p.InstalledAt, p.LastPlayed, p.Playtime, p.ConfigPath,
		p.Service, p.ServiceID, p.Year,
	)
	if err != nil {
		return 0, fmt.Errorf("game insert: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("game last insert id: %w", err)
	}
	return newID, nil
}

// UpdatePlayed records the end of a play session: bumps lastplayed and adds
// the session to the accumulated playtime.
func (l *Library) UpdatePlayed(ctx context.Context, id int64, playedAt time.Time, session time.Duration) error {
	_, err := l.db.ExecContext(ctx,
		`UPDATE games SET lastplayed = ?, playtime = playtime + ? WHERE id = ?`,
		playedAt.Unix(), session.Hours(), id,
	)
	if err != nil {
		return fmt.Errorf("game update played: %w", err)
	}
	return nil
}
