package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lexdesk/internal/app"
	"lexdesk/internal/config"
	"lexdesk/internal/practice"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newApp reads the config and creates a LexApp. The caller must defer app.Close().
// command identifies the CLI command being run (e.g. "serve", "users-add").
func newApp(ctx context.Context, command string) (*app.LexApp, error) {
	cfg, path, err := app.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	a, err := app.NewLexApp(ctx, cfg, command)
	if err != nil {
		return nil, fmt.Errorf("initializing app: %w", err)
	}
	return a, nil
}

// readPassphrase prompts on the terminal without echo.
func readPassphrase(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// unlock returns a decryption context when --unlock was given.
func unlock(cmd *cobra.Command, a *app.LexApp) (practice.DecryptionContext, error) {
	want, _ := cmd.Flags().GetBool("unlock")
	if !want {
		return nil, nil
	}
	if !a.EncryptionEnabled() {
		return nil, errors.New("--unlock given but encryption is not configured")
	}
	pass, err := readPassphrase("Passphrase: ")
	if err != nil {
		return nil, err
	}
	return a.Unlock(pass)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var rootCmd = &cobra.Command{
	Use:          "lexdesk",
	Short:        "Legal practice management backend",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		fmt.Println("Next: lexdesk migrate up")
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := app.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", path)
		fmt.Printf("Base Dir:   %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:    %s\n", cfg.LogDir)
		fmt.Printf("Log Level:  %s\n", cfg.LogLevel)
		fmt.Printf("Listen:     %s\n", cfg.Server.Addr)
		fmt.Printf("Database:   %s %s\n", cfg.Database.Type, cfg.Database.DataDir)
		fmt.Printf("Storage:    %s\n", cfg.Storage.Type)
		fmt.Printf("Encryption: %s\n", cfg.Encryption.Type)

		in := cfg.Integrations
		for _, v := range []struct {
			name string
			on   bool
		}{
			{"stripe", in.Stripe.SecretKey != ""},
			{"resend", in.Email.ResendAPIKey != ""},
			{"google-calendar", in.Calendar.ClientID != "" && in.Calendar.ClientSecret != ""},
			{"courtlistener", in.CourtListener.APIKey != ""},
			{"ai21", in.AI21.APIKey != ""},
			{"clockify", in.Clockify.APIKey != "" && in.Clockify.WorkspaceID != ""},
		} {
			state := "not configured"
			if v.on {
				state = "configured"
			}
			fmt.Printf("  %-16s %s\n", v.name, state)
		}
		return nil
	},
}

// migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := app.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		if err := app.MigrateDatabase(cfg); err != nil {
			return err
		}
		fmt.Println("Database is up to date.")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := app.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}
		current, latest, dirty, err := app.MigrationStatus(cfg)
		if err != nil {
			return err
		}
		fmt.Printf("Schema version %d of %d", current, latest)
		if dirty {
			fmt.Print(" (dirty)")
		}
		fmt.Println()
		return nil
	},
}

// keys command
var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage encryption keys",
}

var keysInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), "keys-init")
		if err != nil {
			return err
		}
		defer a.Close()

		pass, err := readPassphrase("New passphrase: ")
		if err != nil {
			return err
		}
		confirm, err := readPassphrase("Repeat passphrase: ")
		if err != nil {
			return err
		}
		if pass != confirm {
			return errors.New("passphrases do not match")
		}
		if err := a.InitKeys(pass); err != nil {
			return err
		}
		fmt.Println("Encryption keys generated.")
		return nil
	},
}

// users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage user accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add EMAIL",
	Short: "Register a user and print a bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		a, err := newApp(cmd.Context(), "users-add")
		if err != nil {
			return err
		}
		defer a.Close()

		p, token, err := a.AddUser(cmd.Context(), args[0], name, role, ttl)
		if err != nil {
			return fmt.Errorf("adding user: %w", err)
		}
		fmt.Printf("User:  %s (%s, %s)\n", p.Email, p.Role, p.ID)
		fmt.Printf("Token: %s\n", token)
		return nil
	},
}

var usersTokenCmd = &cobra.Command{
	Use:   "token EMAIL",
	Short: "Issue a new bearer token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ttl, _ := cmd.Flags().GetDuration("ttl")

		a, err := newApp(cmd.Context(), "users-token")
		if err != nil {
			return err
		}
		defer a.Close()

		token, err := a.IssueToken(cmd.Context(), args[0], ttl)
		if err != nil {
			return fmt.Errorf("issuing token: %w", err)
		}
		fmt.Println(token)
		return nil
	},
}

// serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, "serve")
		if err != nil {
			return err
		}
		defer a.Close()

		dc, err := unlock(cmd, a)
		if err != nil {
			return err
		}
		return a.Serve(ctx, dc)
	},
}

// report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the reporting dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")

		r, err := reportRange(from, to)
		if err != nil {
			return err
		}

		a, err := newApp(cmd.Context(), "report")
		if err != nil {
			return err
		}
		defer a.Close()

		rep, err := a.Dashboard(cmd.Context(), user, r)
		if err != nil {
			return err
		}
		return printJSON(rep)
	},
}

// reportRange parses inclusive YYYY-MM-DD dates. The default is the last 30 days.
func reportRange(from, to string) (practice.ReportRange, error) {
	const layout = "2006-01-02"
	today := time.Now().UTC().Truncate(24 * time.Hour)

	r := practice.ReportRange{From: today.AddDate(0, 0, -30), To: today}
	if from != "" {
		t, err := time.Parse(layout, from)
		if err != nil {
			return r, fmt.Errorf("invalid --from: %w", err)
		}
		r.From = t
	}
	if to != "" {
		t, err := time.Parse(layout, to)
		if err != nil {
			return r, fmt.Errorf("invalid --to: %w", err)
		}
		r.To = t
	}
	r.To = r.To.Add(24*time.Hour - time.Nanosecond)
	return r, nil
}

// documents command
var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "Work with stored documents",
}

var documentsGetCmd = &cobra.Command{
	Use:   "get ID OUTPUT",
	Short: "Download a document to a local file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")

		a, err := newApp(cmd.Context(), "documents-get")
		if err != nil {
			return err
		}
		defer a.Close()

		dc, err := unlock(cmd, a)
		if err != nil {
			return err
		}
		doc, err := a.DownloadDocument(cmd.Context(), user, args[0], args[1], dc)
		if err != nil {
			return fmt.Errorf("downloading: %w", err)
		}
		fmt.Printf("Wrote %q (%s, %d bytes) to %s\n", doc.Title, doc.FileType, doc.FileSize, args[1])
		return nil
	},
}

// invoices command
var invoicesCmd = &cobra.Command{
	Use:   "invoices",
	Short: "Work with invoices",
}

var invoicesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List invoices",
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		status, _ := cmd.Flags().GetString("status")

		a, err := newApp(cmd.Context(), "invoices-list")
		if err != nil {
			return err
		}
		defer a.Close()

		invoices, err := a.ListInvoices(cmd.Context(), user, status)
		if err != nil {
			return err
		}
		if len(invoices) == 0 {
			fmt.Println("No invoices.")
			return nil
		}
		for _, inv := range invoices {
			due := "-"
			if inv.DueDate != nil {
				due = inv.DueDate.Format("2006-01-02")
			}
			fmt.Printf("%s  %-8s  %10.2f  due %s  %s\n", inv.ID, inv.Status, inv.Amount(), due, inv.ExternalID)
		}
		return nil
	},
}

func init() {
	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)

	// migrate subcommands
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateStatusCmd)

	// keys subcommands
	keysCmd.AddCommand(keysInitCmd)

	// users subcommands
	usersCmd.AddCommand(usersAddCmd)
	usersAddCmd.Flags().String("name", "", "Full name")
	usersAddCmd.Flags().String("role", practice.RoleLawyer, "Role: client, lawyer or admin")
	usersAddCmd.Flags().Duration("ttl", 0, "Token lifetime (0 uses the default)")
	usersCmd.AddCommand(usersTokenCmd)
	usersTokenCmd.Flags().Duration("ttl", 0, "Token lifetime (0 uses the default)")

	// documents subcommands
	documentsCmd.AddCommand(documentsGetCmd)
	documentsGetCmd.Flags().String("user", "", "Email of the requesting user")
	documentsGetCmd.Flags().Bool("unlock", false, "Prompt for the passphrase to decrypt encrypted files")
	_ = documentsGetCmd.MarkFlagRequired("user")

	// invoices subcommands
	invoicesCmd.AddCommand(invoicesListCmd)
	invoicesListCmd.Flags().String("user", "", "Email of the invoicing user")
	invoicesListCmd.Flags().String("status", "", "Filter by status")
	_ = invoicesListCmd.MarkFlagRequired("user")

	serveCmd.Flags().Bool("unlock", false, "Prompt for the passphrase so encrypted files can be downloaded")

	reportCmd.Flags().String("user", "", "Email of the reporting user")
	reportCmd.Flags().String("from", "", "First day, YYYY-MM-DD (default 30 days ago)")
	reportCmd.Flags().String("to", "", "Last day, YYYY-MM-DD (default today)")
	_ = reportCmd.MarkFlagRequired("user")

	// root commands
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(keysCmd)
	rootCmd.AddCommand(usersCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(documentsCmd)
	rootCmd.AddCommand(invoicesCmd)
}
