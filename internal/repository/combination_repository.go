package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/edumark/smis-api/internal/models"
)

// CombinationRepository reads A-Level subject combinations and their items.
type CombinationRepository struct {
	db *sqlx.DB
}

// NewCombinationRepository constructs the repository.
func NewCombinationRepository(db *sqlx.DB) *CombinationRepository {
	return &CombinationRepository{db: db}
}

// FindByID loads a combination together with its subject items.
func (r *CombinationRepository) FindByID(ctx context.Context, id string) (*models.SubjectCombination, error) {
	const query = `SELECT id, code, name, created_at FROM subject_combinations WHERE id = $1`
	var combination models.SubjectCombination
	if err := r.db.GetContext(ctx, &combination, query, id); err != nil {
		return nil, fmt.Errorf("find combination %s: %w", id, err)
	}

	const itemsQuery = `SELECT id, combination_id, subject_id, is_principal, is_subsidiary
		FROM combination_items WHERE combination_id = $1 ORDER BY is_principal DESC, subject_id ASC`
	if err := r.db.SelectContext(ctx, &combination.Items, itemsQuery, id); err != nil {
		return nil, fmt.Errorf("list combination items for %s: %w", id, err)
	}
	return &combination, nil
}
