package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marthink/redmaker/internal/activation"
	"github.com/marthink/redmaker/internal/clock"
	"github.com/marthink/redmaker/internal/config"
	"github.com/marthink/redmaker/internal/credential"
	"github.com/marthink/redmaker/internal/fleet"
	"github.com/marthink/redmaker/internal/store"
)

// CodesOptions holds flags shared by the codes subcommands.
type CodesOptions struct {
	*RootOptions
	Database string
}

// NewCodesCommand creates the codes command group.
func NewCodesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CodesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "codes",
		Short: "Manage the activation code pool",
	}

	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to config)")

	cmd.AddCommand(newCodesCreateCommand(opts))
	cmd.AddCommand(newCodesListCommand(opts))

	return cmd
}

func newCodesCreateCommand(opts *CodesOptions) *cobra.Command {
	var sedeID, sedeNombre string

	cmd := &cobra.Command{
		Use:   "create <code>",
		Short: "Add an activation code to the pool",
		Long: `Add a single-use activation code to the pool.

The code is normalized (trimmed, uppercased) before insertion, and
creating a code that already exists fails.

Example:
  redmaker codes create REM-SANPED-2025-EZPZ --sede-id SANPED-001 --sede-nombre "San Pedro Centro"`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodesCreate(opts, args[0], sedeID, sedeNombre, cmd)
		},
	}

	cmd.Flags().StringVar(&sedeID, "sede-id", "", "site identifier (required)")
	cmd.Flags().StringVar(&sedeNombre, "sede-nombre", "", "site display name (required)")
	_ = cmd.MarkFlagRequired("sede-id")
	_ = cmd.MarkFlagRequired("sede-nombre")

	return cmd
}

// codeRow is the JSON shape for one activation code in CLI output.
type codeRow struct {
	Code       string     `json:"code"`
	SedeID     string     `json:"sede_id"`
	SedeNombre string     `json:"sede_nombre"`
	IsUsed     bool       `json:"is_used"`
	UsedByMAC  *string    `json:"used_by_mac,omitempty"`
	UsedAt     *time.Time `json:"used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func runCodesCreate(opts *CodesOptions, code, sedeID, sedeNombre string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, act, err := openActivation(opts.Database, opts.Verbose, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	created, err := act.CreateCode(cmd.Context(), code, sedeID, sedeNombre)
	switch {
	case err == nil:
	case activation.IsConflict(err):
		_ = formatter.Error(ErrCodeConflict, err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	case activation.IsValidation(err):
		_ = formatter.Error(ErrCodeInvalid, err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	default:
		return WrapExitError(ExitCommandError, "failed to create code", err)
	}

	if opts.Format == "json" {
		return formatter.Success(codeRow{
			Code:       created.Code,
			SedeID:     created.SedeID,
			SedeNombre: created.SedeNombre,
			CreatedAt:  created.CreatedAt,
		})
	}
	fmt.Fprintf(formatter.Writer, "Created %s for %s (%s)\n", created.Code, created.SedeNombre, created.SedeID)
	return nil
}

func newCodesListCommand(opts *CodesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List activation codes with usage counts",
		Long: `List every activation code, newest first, with its site and usage.

Example:
  redmaker codes list
  redmaker codes list --db ./data/redmaker.db --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCodesList(opts, cmd)
		},
	}

	return cmd
}

// codesListing is the JSON shape for the codes list command.
type codesListing struct {
	Total     int       `json:"total"`
	Available int       `json:"available"`
	Used      int       `json:"used"`
	Codes     []codeRow `json:"codes"`
}

func runCodesList(opts *CodesOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openStore(opts.Database, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	flt := fleet.NewService(st, clock.Real{})
	codes, counts, err := flt.Codes(cmd.Context())
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list codes", err)
	}

	if opts.Format == "json" {
		listing := codesListing{
			Total:     counts.Total,
			Available: counts.Available,
			Used:      counts.Used,
			Codes:     make([]codeRow, len(codes)),
		}
		for i, c := range codes {
			listing.Codes[i] = codeRow{
				Code:       c.Code,
				SedeID:     c.SedeID,
				SedeNombre: c.SedeNombre,
				IsUsed:     c.Used,
				UsedByMAC:  c.UsedByMAC,
				UsedAt:     c.UsedAt,
				CreatedAt:  c.CreatedAt,
			}
		}
		return formatter.Success(listing)
	}

	fmt.Fprintf(formatter.Writer, "%d activation code(s): %d available, %d used\n",
		counts.Total, counts.Available, counts.Used)
	for _, c := range codes {
		state := "available"
		if c.Used && c.UsedByMAC != nil {
			state = "used by " + *c.UsedByMAC
		}
		fmt.Fprintf(formatter.Writer, "  %s  %s (%s)  %s\n", c.Code, c.SedeNombre, c.SedeID, state)
	}
	return nil
}

// resolveDBPath returns the explicit flag value or the configured default.
func resolveDBPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	cfg, err := config.Load("")
	if err != nil {
		return "", err
	}
	return cfg.DBPath, nil
}

// openStore resolves the database path and opens the store. dbFlag
// overrides the configured default when non-empty.
func openStore(dbFlag string, formatter *OutputFormatter) (*store.Store, error) {
	path, err := resolveDBPath(dbFlag)
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	formatter.VerboseLog("Opening database %s", path)

	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

// openActivation opens the store and builds an activation service on it.
func openActivation(dbFlag string, verbose bool, formatter *OutputFormatter) (*store.Store, *activation.Service, error) {
	st, err := openStore(dbFlag, formatter)
	if err != nil {
		return nil, nil, err
	}
	act := activation.NewService(st, credential.SecureGenerator{}, clock.Real{}, newLogger(verbose))
	return st, act, nil
}
