package clickhouse

import (
	"context"
	"fmt"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// EventStore implements storage.EventStore using ClickHouse.
type EventStore struct {
	conn *Conn
}

// NewEventStore creates a new EventStore.
func NewEventStore(conn *Conn) *EventStore {
	return &EventStore{conn: conn}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

const eventColumns = `event_id, kind, proposal, account, lamports, price, timestamp_ms`

// InsertBulk adds events. Fails entire batch on duplicate event_id.
func (s *EventStore) InsertBulk(ctx context.Context, events []*domain.Event) error {
	if len(events) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(events))
	ids := make([]string, 0, len(events))
	for _, e := range events {
		if e == nil || e.EventID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[e.EventID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[e.EventID] = struct{}{}
		ids = append(ids, e.EventID)
	}

	// ReplacingMergeTree does not reject duplicates at insert time
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count() FROM settlement_events WHERE event_id IN ?`, ids).Scan(&count)
	if err != nil {
		return fmt.Errorf("check existing events: %w", err)
	}
	if count > 0 {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO settlement_events (`+eventColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, e := range events {
		err = batch.Append(
			e.EventID, string(e.Kind), e.Proposal, e.Account,
			e.Lamports, e.Price, e.TimestampMs,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByProposal retrieves events of a proposal, ordered by timestamp ASC.
func (s *EventStore) GetByProposal(ctx context.Context, proposal string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM settlement_events FINAL
		WHERE proposal = ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, proposal)
	if err != nil {
		return nil, fmt.Errorf("query events by proposal: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// GetByAccount retrieves events that touched account, ordered by timestamp ASC.
func (s *EventStore) GetByAccount(ctx context.Context, account string) ([]*domain.Event, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM settlement_events FINAL
		WHERE account = ?
		ORDER BY timestamp_ms ASC, event_id ASC
	`

	rows, err := s.conn.Query(ctx, query, account)
	if err != nil {
		return nil, fmt.Errorf("query events by account: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows chRows) ([]*domain.Event, error) {
	var events []*domain.Event

	for rows.Next() {
		var e domain.Event
		var kind string

		err := rows.Scan(
			&e.EventID, &kind, &e.Proposal, &e.Account,
			&e.Lamports, &e.Price, &e.TimestampMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan event row: %w", err)
		}

		e.Kind = domain.EventKind(kind)
		events = append(events, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate event rows: %w", err)
	}

	return events, nil
}
