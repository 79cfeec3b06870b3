package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marthink/redmaker/internal/seed"
)

// SeedOptions holds flags for the seed command.
type SeedOptions struct {
	*RootOptions
	Database string
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SeedOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "seed [file]",
		Short: "Provision activation codes from a YAML file",
		Long: `Provision activation codes into the pool.

Without a file argument the built-in sample codes are applied. Codes
that already exist are skipped, so re-running a provisioning file after
adding entries is safe.

Example:
  redmaker seed
  redmaker seed ./codes.yaml --db ./data/redmaker.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			file := ""
			if len(args) == 1 {
				file = args[0]
			}
			return runSeed(opts, file, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (defaults to config)")

	return cmd
}

// seedResult is the JSON shape for the seed command.
type seedResult struct {
	Created int `json:"created"`
	Skipped int `json:"skipped"`
}

func runSeed(opts *SeedOptions, file string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	entries := seed.SampleEntries()
	if file != "" {
		loaded, err := seed.LoadFile(file)
		if err != nil {
			_ = formatter.Error(ErrCodeSeed, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to load seed file", err)
		}
		entries = loaded
	}
	formatter.VerboseLog("Provisioning %d code(s)", len(entries))

	st, act, err := openActivation(opts.Database, opts.Verbose, formatter)
	if err != nil {
		return err
	}
	defer st.Close()

	created, err := seed.Apply(cmd.Context(), act, entries, newLogger(opts.Verbose))
	if err != nil {
		return WrapExitError(ExitFailure, "seeding failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(seedResult{Created: created, Skipped: len(entries) - created})
	}
	fmt.Fprintf(formatter.Writer, "Seeded %d code(s), %d already present\n", created, len(entries)-created)
	return nil
}
