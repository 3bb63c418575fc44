package history

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/dev-sourcer/internal/outreach"
)

// SaveMessage records a composed message for a candidate of a stored listing.
// Delivery happens elsewhere.
func (s *Store) SaveMessage(ctx context.Context, listingID, recruiter string, msg *outreach.Message) error {
	if msg == nil || msg.ID == "" {
		return errors.New("message with id is required")
	}

	var known int
	if err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COUNT(*) FROM candidate WHERE search_listing_id = ? AND id = ?`),
		listingID, msg.CandidateID,
	).Scan(&known); err != nil {
		return fmt.Errorf("look up candidate %s: %w", msg.CandidateID, err)
	}
	if known == 0 {
		return fmt.Errorf("candidate %s in listing %s: %w", msg.CandidateID, listingID, ErrNotFound)
	}

	if _, err := s.db.ExecContext(ctx, s.rebind(`INSERT INTO outreach_message (
		id, search_listing_id, candidate_id, recruiter, mode, subject, body, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		msg.ID, listingID, msg.CandidateID, recruiter, string(msg.Mode), msg.Subject, msg.Body, formatTime(msg.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert message %s: %w", msg.ID, err)
	}

	s.logger.Debug("outreach message saved",
		zap.String("listing_id", listingID),
		zap.String("candidate_id", msg.CandidateID),
		zap.String("message_id", msg.ID),
	)
	return nil
}

// Messages returns the messages composed for a listing, oldest first.
func (s *Store) Messages(ctx context.Context, listingID string) ([]*outreach.Message, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT
		id, candidate_id, mode, subject, body, created_at
		FROM outreach_message WHERE search_listing_id = ? ORDER BY created_at, id`), listingID)
	if err != nil {
		return nil, fmt.Errorf("query messages of %s: %w", listingID, err)
	}
	defer rows.Close()

	messages := make([]*outreach.Message, 0)
	for rows.Next() {
		var (
			msg       outreach.Message
			mode      string
			createdAt string
		)
		if err := rows.Scan(&msg.ID, &msg.CandidateID, &mode, &msg.Subject, &msg.Body, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Mode = outreach.Mode(mode)
		if msg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		messages = append(messages, &msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ContactedCandidates returns the distinct ids of candidates with at least one saved message.
func (s *Store) ContactedCandidates(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT candidate_id FROM outreach_message ORDER BY candidate_id`)
	if err != nil {
		return nil, fmt.Errorf("query contacted candidates: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate contacted candidates: %w", err)
	}
	return ids, nil
}
