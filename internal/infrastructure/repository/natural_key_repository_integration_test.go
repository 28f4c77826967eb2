package repository_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/yash-jain-1224/crm-dashboard/internal/domain/crm"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/db"
	"github.com/yash-jain-1224/crm-dashboard/internal/infrastructure/repository"
)

func TestNaturalKeyRepositoryExistingKeysIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	gdb, err := db.Open(db.Config{URL: dsn}, nil)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := gdb.Exec("TRUNCATE TABLE contacts RESTART IDENTITY").Error; err != nil {
		t.Fatalf("failed to truncate contacts: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer pool.Close()

	entities := repository.NewEntityRepository(gdb)
	if _, err := entities.Insert(ctx, crm.Record{Kind: crm.KindContacts, Values: map[string]any{
		"name":   "John",
		"email":  "john@example.com",
		"status": "Active",
	}}); err != nil {
		t.Fatalf("insert contact: %v", err)
	}

	repo := repository.NewNaturalKeyRepository(pool)
	existing, err := repo.ExistingKeys(ctx, crm.KindContacts, []string{"john@example.com", "jane@example.com"})
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if len(existing) != 1 {
		t.Fatalf("expected one existing key, got %v", existing)
	}
	if _, ok := existing["john@example.com"]; !ok {
		t.Fatalf("expected john@example.com in %v", existing)
	}

	if _, err := entities.Insert(ctx, crm.Record{Kind: crm.KindContacts, Values: map[string]any{
		"name":  "John Again",
		"email": "john@example.com",
	}}); err != crm.ErrDuplicateKey {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}
}
