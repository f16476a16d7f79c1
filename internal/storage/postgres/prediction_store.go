package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// PredictionStore implements storage.PredictionStore using PostgreSQL.
type PredictionStore struct {
	t *tx
}

// Compile-time interface check.
var _ storage.PredictionStore = (*PredictionStore)(nil)

const predictionColumns = `address, proposal, authority, prediction, amount, resolved, bump`

// Insert adds a new prediction. Returns ErrDuplicateKey if the address or
// the (proposal, authority) pair exists.
func (s *PredictionStore) Insert(ctx context.Context, p *domain.UserPrediction) error {
	if p == nil || p.Address == "" || p.Proposal == "" || p.Authority == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	amount, err := toBigint(p.Amount)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_predictions (` + predictionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.t.q.Exec(ctx, query,
		p.Address,
		p.Proposal,
		p.Authority,
		bool(p.Prediction),
		amount,
		p.Resolved,
		int16(p.Bump),
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// GetByAddress retrieves a prediction. Returns ErrNotFound if not exists.
func (s *PredictionStore) GetByAddress(ctx context.Context, address string) (*domain.UserPrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM user_predictions
		WHERE address = $1` + s.t.lockClause()

	p, err := scanPrediction(s.t.q.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get prediction by address: %w", err)
	}
	return p, nil
}

// GetByProposal retrieves all predictions of a proposal, ordered by address ASC.
// Rows are not locked; amount and direction never change after insert.
func (s *PredictionStore) GetByProposal(ctx context.Context, proposal string) ([]*domain.UserPrediction, error) {
	query := `
		SELECT ` + predictionColumns + `
		FROM user_predictions
		WHERE proposal = $1
		ORDER BY address ASC
	`

	rows, err := s.t.q.Query(ctx, query, proposal)
	if err != nil {
		return nil, fmt.Errorf("get predictions by proposal: %w", err)
	}
	defer rows.Close()

	var predictions []*domain.UserPrediction
	for rows.Next() {
		p, err := scanPrediction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan prediction row: %w", err)
		}
		predictions = append(predictions, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate prediction rows: %w", err)
	}

	return predictions, nil
}

// MarkResolved sets resolved=true.
// Returns ErrConflict if already resolved, ErrNotFound if not exists.
func (s *PredictionStore) MarkResolved(ctx context.Context, address string) error {
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	tag, err := s.t.q.Exec(ctx, `
		UPDATE user_predictions
		SET resolved = TRUE
		WHERE address = $1 AND NOT resolved
	`, address)
	if err != nil {
		return fmt.Errorf("mark prediction resolved: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = s.t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM user_predictions WHERE address = $1)`, address).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check prediction exists: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

// scanPrediction scans a single row into a UserPrediction.
func scanPrediction(row pgx.Row) (*domain.UserPrediction, error) {
	var p domain.UserPrediction
	var direction bool
	var amount int64
	var bump int16

	err := row.Scan(
		&p.Address,
		&p.Proposal,
		&p.Authority,
		&direction,
		&amount,
		&p.Resolved,
		&bump,
	)
	if err != nil {
		return nil, err
	}

	p.Prediction = domain.Direction(direction)
	p.Amount = uint64(amount)
	p.Bump = uint8(bump)
	return &p, nil
}
