package library

import (
	"context"
	"fmt"
)

// ServiceGame is a game seen in an external store. AppID is the store's own
// identifier (Steam appid and the like); Details carries service-specific
// JSON the importer may want later.
type ServiceGame struct {
	ID      int64
	Service string
	AppID   string
	Name    string
	Slug    string
	Details string
}

// UpsertServiceGame writes a service game keyed by (service, appid).
func (l *Library) UpsertServiceGame(ctx context.Context, sg ServiceGame) error {
	if sg.Slug == "" {
		sg.Slug = Slugify(sg.Name)
	}
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO service_games (service, appid, name, slug, details)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (service, appid) DO UPDATE
		 SET name = excluded.name, slug = excluded.slug, details = excluded.details`,
		sg.Service, sg.AppID, sg.Name, sg.Slug, sg.Details,
	)
	if err != nil {
		return fmt.Errorf("service game upsert: %w", err)
	}
	return nil
}

// ServiceGames lists the imported games for one service, ordered by name.
func (l *Library) ServiceGames(ctx context.Context, service string) ([]ServiceGame, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, service, appid, name, slug, COALESCE(details, '')
		 FROM service_games WHERE service = ? ORDER BY name COLLATE NOCASE`,
		service,
	)
	if err != nil {
		return nil, fmt.Errorf("service game list: %w", err)
	}
	defer rows.Close()

	var games []ServiceGame
	for rows.Next() {
		var sg ServiceGame
		if err := rows.Scan(&sg.ID, &sg.Service, &sg.AppID, &sg.Name, &sg.Slug, &sg.Details); err != nil {
			return nil, fmt.Errorf("service game scan: %w", err)
		}
		games = append(games, sg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("service game rows: %w", err)
	}
	return games, nil
}
