package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kingpin/v2"

	"github.com/adiawaskar/smart-upi-poc/internal/auth"
	"github.com/adiawaskar/smart-upi-poc/internal/backend"
	"github.com/adiawaskar/smart-upi-poc/internal/cli"
	"github.com/adiawaskar/smart-upi-poc/internal/config"
	"github.com/adiawaskar/smart-upi-poc/internal/core"
	applog "github.com/adiawaskar/smart-upi-poc/internal/log"
	"github.com/adiawaskar/smart-upi-poc/internal/seed"
	"github.com/adiawaskar/smart-upi-poc/internal/services"
	"github.com/adiawaskar/smart-upi-poc/internal/store/sqlite"
)

var (
	app = kingpin.New("upi-admin", "Maintenance commands for the smart-upi record store.")

	migrateCmd = app.Command("migrate", "Apply SQLite schema migrations.")

	seedCmd   = app.Command("seed", "Import demo transactions for a user.")
	seedEmail = seedCmd.Flag("email", "Account email.").Required().String()
	seedCount = seedCmd.Flag("count", "Number of records.").Default(fmt.Sprint(seed.DefaultCount)).Int()
	seedValue = seedCmd.Flag("seed", "Random seed; 0 uses the clock.").Default("0").Int64()

	statsCmd   = app.Command("stats", "Print dashboard statistics for a user as JSON.")
	statsEmail = statsCmd.Flag("email", "Account email.").Required().String()

	usersCmd       = app.Command("users", "Manage accounts.")
	userCreateCmd  = usersCmd.Command("create", "Register an account.")
	userCreateMail = userCreateCmd.Flag("email", "Account email.").Required().String()
	userCreatePass = userCreateCmd.Flag("password", "Account password.").Envar("UPI_ADMIN_PASSWORD").Required().String()
	userCreateName = userCreateCmd.Flag("name", "Display name.").Required().String()
	userCreatePhon = userCreateCmd.Flag("phone", "Phone number.").Required().String()
)

func main() {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg, applog.ComponentApp)
	ctx := context.Background()

	var err error
	switch command {
	case migrateCmd.FullCommand():
		err = migrate(cfg)
	case seedCmd.FullCommand():
		err = withStore(ctx, logger, cfg, func(b *backend.Result) error {
			return seedUser(ctx, b, *seedEmail, *seedCount, *seedValue)
		})
	case statsCmd.FullCommand():
		err = withStore(ctx, logger, cfg, func(b *backend.Result) error {
			return printStats(ctx, b, *statsEmail)
		})
	case userCreateCmd.FullCommand():
		err = withStore(ctx, logger, cfg, func(b *backend.Result) error {
			return createUser(ctx, b, cfg)
		})
	}
	if err != nil {
		logger.Error("Command failed", "command", command, "error", err)
		os.Exit(1)
	}
}

func withStore(ctx context.Context, logger *applog.Logger, cfg *config.Config, fn func(*backend.Result) error) error {
	b, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = b.Cleanup() }()
	return fn(b)
}

func migrate(cfg *config.Config) error {
	if cfg.DataBackend != string(backend.SQLiteBackend) {
		return fmt.Errorf("migrate requires DATA_BACKEND=sqlite, got %q", cfg.DataBackend)
	}
	if err := sqlite.RunMigrations(cfg.SQLiteDBPath); err != nil {
		return err
	}
	version, dirty, err := sqlite.SchemaVersion(cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	fmt.Printf("schema version %d (dirty=%t)\n", version, dirty)
	return nil
}

func seedUser(ctx context.Context, b *backend.Result, email string, count int, value int64) error {
	u, err := b.Store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	if value == 0 {
		value = time.Now().UnixNano()
	}
	txs, err := seed.NewGenerator(value, nil).Populate(ctx, b.Store, u.ID, count)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d transactions for %s\n", len(txs), u.Email)
	return nil
}

func printStats(ctx context.Context, b *backend.Result, email string) error {
	u, err := b.Store.FindUserByEmail(ctx, email)
	if err != nil {
		return err
	}
	txs, err := b.Store.ListTransactions(ctx, u.ID)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(core.Aggregate(txs, time.Now()))
}

func createUser(ctx context.Context, b *backend.Result, cfg *config.Config) error {
	tokens, err := auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return err
	}
	session, err := services.NewAuthService(b.Store, auth.NewHasher(), tokens).Register(ctx, services.RegisterRequest{
		Email:    *userCreateMail,
		Password: *userCreatePass,
		Name:     *userCreateName,
		Phone:    *userCreatePhon,
	})
	if err != nil {
		return err
	}
	fmt.Printf("created %s (%s)\n", session.User.Email, session.User.PaymentAddress)
	return nil
}
