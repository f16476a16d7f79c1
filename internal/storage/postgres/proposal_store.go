package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"solana-prediction/internal/domain"
	"solana-prediction/internal/storage"
)

// ProposalStore implements storage.ProposalStore using PostgreSQL.
type ProposalStore struct {
	t *tx
}

// Compile-time interface check.
var _ storage.ProposalStore = (*ProposalStore)(nil)

const proposalColumns = `address, authority, coin, price, final_price, executed, expiry`

// Insert adds a new proposal. Returns ErrDuplicateKey if address exists.
func (s *ProposalStore) Insert(ctx context.Context, p *domain.Proposal) error {
	if p == nil || p.Address == "" || p.Authority == "" {
		return storage.ErrInvalidInput
	}
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	price, err := toBigint(p.Price)
	if err != nil {
		return err
	}
	finalPrice, err := toBigint(p.FinalPrice)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO proposals (` + proposalColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err = s.t.q.Exec(ctx, query,
		p.Address,
		p.Authority,
		p.Coin,
		price,
		finalPrice,
		p.Executed,
		p.Expiry,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert proposal: %w", err)
	}
	return nil
}

// GetByAddress retrieves a proposal. Returns ErrNotFound if not exists.
func (s *ProposalStore) GetByAddress(ctx context.Context, address string) (*domain.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE address = $1` + s.t.lockClause()

	p, err := scanProposal(s.t.q.QueryRow(ctx, query, address))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get proposal by address: %w", err)
	}
	return p, nil
}

// GetByAuthority retrieves all proposals created by authority, ordered by expiry ASC.
func (s *ProposalStore) GetByAuthority(ctx context.Context, authority string) ([]*domain.Proposal, error) {
	query := `
		SELECT ` + proposalColumns + `
		FROM proposals
		WHERE authority = $1
		ORDER BY expiry ASC, address ASC
	`

	rows, err := s.t.q.Query(ctx, query, authority)
	if err != nil {
		return nil, fmt.Errorf("get proposals by authority: %w", err)
	}
	defer rows.Close()

	var proposals []*domain.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal row: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate proposal rows: %w", err)
	}

	return proposals, nil
}

// MarkExecuted sets final_price and executed=true.
// Returns ErrConflict if already executed, ErrNotFound if not exists.
func (s *ProposalStore) MarkExecuted(ctx context.Context, address string, finalPrice uint64) error {
	if err := s.t.checkWritable(); err != nil {
		return err
	}

	price, err := toBigint(finalPrice)
	if err != nil {
		return err
	}

	tag, err := s.t.q.Exec(ctx, `
		UPDATE proposals
		SET final_price = $2, executed = TRUE
		WHERE address = $1 AND NOT executed
	`, address, price)
	if err != nil {
		return fmt.Errorf("mark proposal executed: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var exists bool
	err = s.t.q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM proposals WHERE address = $1)`, address).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check proposal exists: %w", err)
	}
	if !exists {
		return storage.ErrNotFound
	}
	return storage.ErrConflict
}

// scanProposal scans a single row into a Proposal.
func scanProposal(row pgx.Row) (*domain.Proposal, error) {
	var p domain.Proposal
	var price, finalPrice int64

	err := row.Scan(
		&p.Address,
		&p.Authority,
		&p.Coin,
		&price,
		&finalPrice,
		&p.Executed,
		&p.Expiry,
	)
	if err != nil {
		return nil, err
	}

	p.Price = uint64(price)
	p.FinalPrice = uint64(finalPrice)
	return &p, nil
}
