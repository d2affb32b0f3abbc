// Command splitter runs the shared expense ledger server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/Zergity/splitter/internal/auth"
	"github.com/Zergity/splitter/internal/calculator"
	"github.com/Zergity/splitter/internal/config"
	"github.com/Zergity/splitter/internal/eventlog"
	"github.com/Zergity/splitter/internal/models"
	"github.com/Zergity/splitter/internal/server"
	"github.com/Zergity/splitter/internal/service"
	"github.com/Zergity/splitter/internal/storage/sqlite"
	"github.com/Zergity/splitter/pkg/logging"
)

var configPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "splitter",
		Short: "Shared expense ledger with per-member acceptance",
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "Path to the config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}

	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Populate the database with development data",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd.Context())
		},
	}

	hashCmd := &cobra.Command{
		Use:   "hash-access-code [code]",
		Short: "Print the bcrypt hash of an access code for the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			hash, err := auth.HashAccessCode(args[0])
			if err != nil {
				return err
			}
			fmt.Println(hash)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd, seedCmd, hashCmd)

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	worker := eventlog.NewWorker(store, 100)
	worker.Start()
	defer worker.Shutdown()

	groups := service.NewGroupService(store, worker)
	ledger := service.NewLedgerService(store, worker)

	group, err := groups.Ensure(ctx, cfg.GroupName, cfg.Currency)
	if err != nil {
		return fmt.Errorf("failed to ensure group: %w", err)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	gate := auth.NewAccessGate(cfg.AccessCodeHash)

	srv := server.New(groups, ledger, store, jwtManager, gate, group.ID)

	// h2c so gRPC-style and browser HTTP/2 clients work without TLS.
	handler := h2c.NewHandler(srv.Router(), &http2.Server{})

	slog.Info("Server starting", "address", cfg.ListenAddr, "group", group.Name)
	if err := http.ListenAndServe(cfg.ListenAddr, handler); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// runSeed loads a small development dataset: a group of three and a few
// expenses in different states.
func runSeed(ctx context.Context) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logging.SetupWithLevel(logging.ParseLevel(cfg.LogLevel))

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()

	groups := service.NewGroupService(store, nil)
	ledger := service.NewLedgerService(store, nil)

	group, err := groups.Ensure(ctx, cfg.GroupName, cfg.Currency)
	if err != nil {
		return err
	}

	names := []string{"Alice", "Bob", "Carol"}
	members := make([]*models.Member, 0, len(names))
	for _, name := range names {
		member, err := groups.AddMember(ctx, group.ID, name)
		if err != nil {
			if errors.Is(err, service.ErrDuplicateName) {
				continue
			}
			return err
		}
		members = append(members, member)
	}
	if len(members) < 3 {
		slog.Info("Seed data already present", "group", group.Name)
		return nil
	}
	alice, bob, carol := members[0], members[1], members[2]

	dinner := service.ExpenseInput{
		Description: "Team dinner",
		Amount:      9000,
		PaidBy:      alice.ID,
		Strategy:    models.SplitTypeEqual,
		Splits: []calculator.SplitInput{
			{MemberID: alice.ID}, {MemberID: bob.ID}, {MemberID: carol.ID},
		},
		Tags: []string{"food"},
	}
	expense, err := ledger.CreateExpense(ctx, group.ID, alice.ID, dinner)
	if err != nil {
		return err
	}
	if _, err := ledger.AcceptSplit(ctx, group.ID, expense.ID, bob.ID); err != nil {
		return err
	}

	groceries := service.ExpenseInput{
		Description: "Groceries",
		Amount:      6200,
		PaidBy:      bob.ID,
		Items: []models.LineItem{
			{ID: "", Description: "Vegetables", Amount: 1800, OwnerID: carol.ID},
			{ID: "", Description: "Snacks", Amount: 1400},
			{ID: "", Description: "Household", Amount: 3000},
		},
	}
	for i := range groceries.Items {
		groceries.Items[i].ID = fmt.Sprintf("seed-item-%d", i+1)
	}
	if _, err := ledger.CreateExpense(ctx, group.ID, bob.ID, groceries); err != nil {
		return err
	}

	if _, err := ledger.RecordSettlement(ctx, group.ID, carol.ID, carol.ID, alice.ID, 3000); err != nil {
		return err
	}

	slog.Info("Seed data loaded", "group", group.Name, "members", len(names))
	return nil
}
