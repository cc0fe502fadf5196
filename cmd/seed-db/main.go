// Command seed-db loads a demo stock file and provisions an API key, for
// local development and the integration test environment.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/velmart/checkout-core/internal/domain/auth"
	"github.com/velmart/checkout-core/internal/storage/postgres"
)

type stockEntry struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func main() {
	var (
		databaseURL  string
		stockFile    string
		apiKey       string
		apiKeyPepper string
		adminKey     bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&stockFile, "stock-file", "db/seed/stock.json", "path to stock JSON file")
	flag.StringVar(&apiKey, "api-key", "", "API key to seed (or CHECKOUT_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or CHECKOUT_API_KEY_PEPPER env)")
	flag.BoolVar(&adminKey, "admin", false, "grant the admin scope to the seeded key")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("CHECKOUT_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or CHECKOUT_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("CHECKOUT_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, stockFile, apiKey, apiKeyPepper, adminKey); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seed complete")
}

func run(ctx context.Context, databaseURL, stockFile, apiKey, pepper string, admin bool) error {
	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "create pool")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	data, err := os.ReadFile(stockFile)
	if err != nil {
		return errors.Wrap(err, "read stock file")
	}
	var entries []stockEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return errors.Wrap(err, "parse stock file")
	}

	stockRepo := postgres.NewStockRepository(pool)
	for _, e := range entries {
		if err := stockRepo.Upsert(ctx, e.ProductID, e.Quantity); err != nil {
			return errors.Wrapf(err, "seed stock %q", e.ProductID)
		}
	}
	slog.Info("stock seeded", slog.Int("products", len(entries)))

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))

	scopes := []string{auth.ScopeOrders}
	if admin {
		scopes = append(scopes, auth.ScopeAdmin)
	}
	apikeyRepo := postgres.NewAPIKeyRepository(pool)
	if err := apikeyRepo.Insert(ctx, &auth.APIKeyInfo{
		ID:      uuid.New().String(),
		KeyHash: hex.EncodeToString(mac.Sum(nil)),
		UserID:  "seed-user",
		Name:    "seed",
		Scopes:  scopes,
	}); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}
