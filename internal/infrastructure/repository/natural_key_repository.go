package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
)

// NaturalKeyRepository answers duplicate lookups for a whole batch with one
// query per batch.
type NaturalKeyRepository struct {
	pool *pgxpool.Pool
}

func NewNaturalKeyRepository(pool *pgxpool.Pool) *NaturalKeyRepository {
	return &NaturalKeyRepository{pool: pool}
}

func (r *NaturalKeyRepository) ExistingKeys(ctx context.Context, kind crm.Kind, keys []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	table, column, ok := naturalKeyColumn(kind)
	if !ok || len(keys) == 0 {
		return existing, nil
	}

	query := fmt.Sprintf(
		"SELECT lower(%[1]s) FROM %[2]s WHERE lower(%[1]s) = ANY($1)",
		column, table,
	)
	rows, err := r.pool.Query(ctx, query, keys)
	if err != nil {
		return nil, fmt.Errorf("lookup existing %s keys: %w", kind, err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan existing %s key: %w", kind, err)
		}
		existing[key] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing %s keys: %w", kind, err)
	}
	return existing, nil
}
