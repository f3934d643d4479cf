package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/ZaguanLabs/invlocale/internal/domain"
)

// CreateInvestment inserts the source row of an investment.
func (s *Store) CreateInvestment(ctx context.Context, inv *domain.Investment) error {
	if _, err := s.db.NewInsert().Model(investmentFromDomain(inv)).Exec(ctx); err != nil {
		return fmt.Errorf("insert investment %s: %w", inv.ID, err)
	}
	return nil
}

// UpdateInvestment replaces the source row of an investment.
func (s *Store) UpdateInvestment(ctx context.Context, inv *domain.Investment) error {
	res, err := s.db.NewUpdate().
		Model(investmentFromDomain(inv)).
		ExcludeColumn("created_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update investment %s: %w", inv.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteInvestment removes an investment and all of its translations in one
// transaction.
func (s *Store) DeleteInvestment(ctx context.Context, id string) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*translationModel)(nil)).
			Where("investment_id = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete translations of %s: %w", id, err)
		}

		res, err := tx.NewDelete().
			Model((*investmentModel)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("delete investment %s: %w", id, err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// GetInvestment returns the source row of an investment.
func (s *Store) GetInvestment(ctx context.Context, id string) (*domain.Investment, error) {
	var m investmentModel
	err := s.db.NewSelect().
		Model(&m).
		Where("i.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get investment %s: %w", id, err)
	}
	return m.toDomain(), nil
}

// ListInvestmentIDs returns every investment id, newest submission first.
func (s *Store) ListInvestmentIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.NewSelect().
		Model((*investmentModel)(nil)).
		Column("id").
		OrderExpr("i.submitted_at DESC, i.id ASC").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("list investment ids: %w", err)
	}
	return ids, nil
}
