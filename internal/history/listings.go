package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/query"
	"github.com/spigell/dev-sourcer/internal/sourcing"
)

const defaultListLimit = 20

// ListingSummary is a listing without its candidates.
type ListingSummary struct {
	ID           string
	EnteredQuery string
	Candidates   int
	CreatedAt    time.Time
}

// SaveListing stores a listing together with its candidates in rank order.
func (s *Store) SaveListing(ctx context.Context, listing *sourcing.Listing) error {
	if listing == nil || listing.ID == "" {
		return errors.New("listing with id is required")
	}

	parsed, err := json.Marshal(listing.ParsedQuery)
	if err != nil {
		return fmt.Errorf("marshal parsed query: %w", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			s.rebind(`INSERT INTO search_listing (id, entered_query, parsed_query, created_at) VALUES (?, ?, ?, ?)`),
			listing.ID, listing.EnteredQuery, string(parsed), formatTime(listing.CreatedAt),
		); err != nil {
			return fmt.Errorf("insert listing %s: %w", listing.ID, err)
		}

		stmt, err := tx.PrepareContext(ctx, s.rebind(`INSERT INTO candidate (
			search_listing_id, id, position, github_username, avatar_url, location, bio,
			profile_url, extra_data, languages, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`))
		if err != nil {
			return fmt.Errorf("prepare candidate insert: %w", err)
		}
		defer stmt.Close()

		for i, c := range listing.Candidates {
			metrics, err := json.Marshal(c.Metrics)
			if err != nil {
				return fmt.Errorf("marshal metrics for %s: %w", c.ID, err)
			}
			languages, err := json.Marshal(c.Languages)
			if err != nil {
				return fmt.Errorf("marshal languages for %s: %w", c.ID, err)
			}

			if _, err := stmt.ExecContext(ctx,
				listing.ID, c.ID, i, c.Handle, c.AvatarURL, c.Location, c.Bio,
				c.ProfileURL, string(metrics), string(languages), formatTime(c.CreatedAt),
			); err != nil {
				return fmt.Errorf("insert candidate %s: %w", c.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("listing saved",
		zap.String("listing_id", listing.ID),
		zap.Int("candidates", listing.Len()),
	)
	return nil
}

// GetListing loads a listing and its candidates. It returns ErrNotFound for unknown ids.
func (s *Store) GetListing(ctx context.Context, id string) (*sourcing.Listing, error) {
	var (
		listing   sourcing.Listing
		parsed    string
		createdAt string
	)

	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, entered_query, parsed_query, created_at FROM search_listing WHERE id = ?`),
		id,
	).Scan(&listing.ID, &listing.EnteredQuery, &parsed, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("listing %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query listing %s: %w", id, err)
	}

	var filter query.SearchFilter
	if err := json.Unmarshal([]byte(parsed), &filter); err != nil {
		return nil, fmt.Errorf("decode parsed query of %s: %w", id, err)
	}
	listing.ParsedQuery = filter

	if listing.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}

	if listing.Candidates, err = s.candidates(ctx, id); err != nil {
		return nil, err
	}

	return &listing, nil
}

func (s *Store) candidates(ctx context.Context, listingID string) ([]*sourcing.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, github_username, avatar_url, location, bio, profile_url, extra_data, languages, created_at
		FROM candidate WHERE search_listing_id = ? ORDER BY position`), listingID)
	if err != nil {
		return nil, fmt.Errorf("query candidates of %s: %w", listingID, err)
	}
	defer rows.Close()

	candidates := make([]*sourcing.Candidate, 0)
	for rows.Next() {
		var (
			c                  sourcing.Candidate
			metrics, languages string
			createdAt          string
		)
		if err := rows.Scan(&c.ID, &c.Handle, &c.AvatarURL, &c.Location, &c.Bio, &c.ProfileURL,
			&metrics, &languages, &createdAt); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if err := json.Unmarshal([]byte(metrics), &c.Metrics); err != nil {
			return nil, fmt.Errorf("decode metrics of %s: %w", c.ID, err)
		}
		if err := json.Unmarshal([]byte(languages), &c.Languages); err != nil {
			return nil, fmt.Errorf("decode languages of %s: %w", c.ID, err)
		}
		if c.Languages == nil {
			c.Languages = make([]string, 0)
		}
		if c.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return candidates, nil
}

// ListListings returns the newest listings first.
func (s *Store) ListListings(ctx context.Context, limit int) ([]ListingSummary, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		l.id, l.entered_query, l.created_at,
		(SELECT COUNT(*) FROM candidate c WHERE c.search_listing_id = l.id)
		FROM search_listing l ORDER BY l.created_at DESC, l.id LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("query listings: %w", err)
	}
	defer rows.Close()

	summaries := make([]ListingSummary, 0)
	for rows.Next() {
		var (
			summary   ListingSummary
			createdAt string
		)
		if err := rows.Scan(&summary.ID, &summary.EnteredQuery, &createdAt, &summary.Candidates); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		if summary.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return summaries, nil
}
