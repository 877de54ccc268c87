package main

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/natabridge/natabridge/internal/config"
	"github.com/natabridge/natabridge/internal/domain/account"
	"github.com/natabridge/natabridge/internal/domain/risk"
	"github.com/natabridge/natabridge/internal/platform/apperr"
	"github.com/natabridge/natabridge/internal/platform/auth"
	"github.com/natabridge/natabridge/internal/platform/db"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "natabridge-server",
		Short:        "NataBridge maternal health API server",
		SilenceUsage: true,
	}
	root.AddCommand(serveCmd())
	root.AddCommand(migrateCmd())
	root.AddCommand(rulesCmd())
	root.AddCommand(seedCmd())
	return root
}

func newLogger(cfg *config.Config) zerolog.Logger {
	if cfg != nil && cfg.IsDev() {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir := migrationsDir(cmd, cfg)

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			dir := migrationsDir(cmd, cfg)

			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Fprintln(out, "---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status, appliedAt := "pending", ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Fprintf(out, "%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "", "Path to migrations directory (default MIGRATIONS_DIR)")
	cmd.AddCommand(statusCmd)

	return cmd
}

func migrationsDir(cmd *cobra.Command, cfg *config.Config) string {
	if dir, _ := cmd.Flags().GetString("dir"); dir != "" {
		return dir
	}
	return cfg.MigrationsDir
}

func rulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Inspect risk rule files",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check <file>",
		Short: "Validate a risk rules file without starting the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkRules(cmd.OutOrStdout(), args[0])
		},
	})
	return cmd
}

func checkRules(out io.Writer, path string) error {
	rs, err := risk.LoadRuleSet(path)
	if err != nil {
		return err
	}
	if _, err := risk.NewEngine(rs); err != nil {
		return err
	}
	levels := rs.Risk.Levels
	fmt.Fprintf(out, "%s: ok (%d symptom rules; caution >= %d, high_risk >= %d, emergency >= %d)\n",
		path, len(rs.Risk.Symptoms), levels.Caution, levels.HighRisk, levels.Emergency)
	return nil
}

// seedUser is an account created by the seed command.
type seedUser struct {
	flag     string
	email    string
	phone    string
	fullName string
	role     string
}

var seedUsers = []seedUser{
	{flag: "admin-password", email: "admin@natabridge.com", phone: "08012345678", fullName: "PHC Administrator", role: auth.RoleAdmin},
	{flag: "chw-password", email: "chw@natabridge.com", phone: "08012345679", fullName: "Community Health Worker", role: auth.RoleCHW},
	{flag: "mother-password", email: "mother@natabridge.com", phone: "08012345680", fullName: "Test Mother", role: auth.RoleMother},
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the initial admin, CHW and mother accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			passwords := make(map[string]string, len(seedUsers))
			for _, u := range seedUsers {
				passwords[u.flag], _ = cmd.Flags().GetString(u.flag)
			}
			svc := account.NewService(account.NewRepoPG(pool), nil)
			return seed(ctx, cmd.OutOrStdout(), svc, passwords)
		},
	}
	for _, u := range seedUsers {
		cmd.Flags().String(u.flag, "", fmt.Sprintf("Password for %s (random when empty)", u.email))
	}
	return cmd
}

type userCreator interface {
	CreateUser(ctx context.Context, req account.RegisterRequest) (*account.User, error)
}

// seed creates each seed account that does not exist yet. Generated
// passwords are printed once.
func seed(ctx context.Context, out io.Writer, svc userCreator, passwords map[string]string) error {
	for _, u := range seedUsers {
		password := passwords[u.flag]
		generated := password == ""
		if generated {
			var err error
			if password, err = randomPassword(); err != nil {
				return err
			}
		}
		_, err := svc.CreateUser(ctx, account.RegisterRequest{
			Email:    u.email,
			Phone:    u.phone,
			Password: password,
			FullName: u.fullName,
			Role:     u.role,
		})
		switch {
		case errors.Is(err, apperr.ErrConflict):
			fmt.Fprintf(out, "%s already exists, skipped\n", u.email)
		case err != nil:
			return fmt.Errorf("seed %s: %w", u.email, err)
		case generated:
			fmt.Fprintf(out, "created %s (%s) password: %s\n", u.email, u.role, password)
		default:
			fmt.Fprintf(out, "created %s (%s)\n", u.email, u.role)
		}
	}
	return nil
}

func randomPassword() (string, error) {
	b := make([]byte, 9)
	if _, err := crypto_rand.Read(b); err != nil {
		return "", fmt.Errorf("generate password: %w", err)
	}
	return hex.EncodeToString(b), nil
}
