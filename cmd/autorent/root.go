package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/autorent/autorent-platform/pkg/bootstrap"
	"github.com/autorent/autorent-platform/pkg/config"
	apperrors "github.com/autorent/autorent-platform/pkg/errors"
)

const serviceName = "autorent-cli"

// env carries what every command needs. The App is built on first use.
type env struct {
	v      *viper.Viper
	out    io.Writer
	errOut io.Writer

	opts       bootstrap.Options
	loadConfig func() (*config.Config, error)

	app *bootstrap.App
}

func newEnv(out, errOut io.Writer) *env {
	return &env{
		v:      viper.New(),
		out:    out,
		errOut: errOut,
		loadConfig: func() (*config.Config, error) {
			return config.Load(serviceName)
		},
	}
}

// run executes args and returns the process exit status.
func run(ctx context.Context, args []string, e *env) int {
	root := newRootCmd(e)
	root.SetArgs(args)
	root.SetOut(e.out)
	root.SetErr(e.errOut)

	err := root.ExecuteContext(ctx)
	if closeErr := e.close(context.WithoutCancel(ctx)); closeErr != nil && err == nil {
		fmt.Fprintln(e.errOut, "warning:", closeErr)
	}
	if err != nil {
		writeError(e.errOut, err)
	}
	return apperrors.ExitCode(err)
}

func writeError(w io.Writer, err error) {
	fmt.Fprintln(w, "Error:", apperrors.UserMessage(err))

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		// Usage errors from cobra carry their own text
		fmt.Fprintln(w, " ", err.Error())
		return
	}
	keys := make([]string, 0, len(appErr.Details))
	for k := range appErr.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %s\n", k, appErr.Details[k])
	}
}

func newRootCmd(e *env) *cobra.Command {
	root := &cobra.Command{
		Use:   "autorent",
		Short: "Browse rental cars and manage favorites, comparisons and bookings",
		Long: `autorent is the command-line front end of the AutoRent catalogue.

Configuration comes from the environment (and an optional .env file). Flags and
AUTORENT_* variables override it, for example:

  # Use an in-memory store for a throwaway session
  autorent --storage memory catalogue list

  # Search sedans matching "cam"
  AUTORENT_OUTPUT=json autorent catalogue list --search cam --type Sedan`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String("log-level", "", "Log level (debug, info, warn, error)")
	flags.String("log-format", "", "Log format (json, text)")
	flags.String("storage", "", "Storage backend (memory, file, redis, sqlserver, postgres, cosmos, blob)")
	flags.String("storage-path", "", "State file for the file backend")
	flags.StringP("output", "o", "text", "Output format (text, json)")

	e.v.SetEnvPrefix("AUTORENT")
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()
	_ = e.v.BindPFlags(flags)

	root.AddCommand(
		newCatalogueCmd(e),
		newSelectionCmd(e, "favorites", "Manage favorite cars"),
		newSelectionCmd(e, "compare", "Manage the two-car comparison"),
		newRecentCmd(e),
		newBookCmd(e),
		newBookingsCmd(e),
		newPrefsCmd(e),
		newAuthCmd(e),
		newHealthCmd(e),
	)
	return root
}

// App builds the application from config plus flag overrides.
func (e *env) App(ctx context.Context) (*bootstrap.App, error) {
	if e.app != nil {
		return e.app, nil
	}

	cfg, err := e.loadConfig()
	if err != nil {
		return nil, err
	}
	e.applyOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := e.opts
	if opts.LogOutput == nil {
		opts.LogOutput = e.errOut
	}
	app, err := bootstrap.New(ctx, cfg, opts)
	if err != nil {
		return nil, err
	}
	e.app = app
	return app, nil
}

func (e *env) applyOverrides(cfg *config.Config) {
	if s := e.v.GetString("log-level"); s != "" {
		cfg.LogLevel = strings.ToLower(s)
	}
	if s := e.v.GetString("log-format"); s != "" {
		cfg.LogFormat = strings.ToLower(s)
	}
	if s := e.v.GetString("storage"); s != "" {
		cfg.StorageBackend = strings.ToLower(s)
	}
	if s := e.v.GetString("storage-path"); s != "" {
		cfg.StoragePath = s
	}
}

func (e *env) jsonOutput() bool {
	return strings.EqualFold(e.v.GetString("output"), "json")
}

func (e *env) close(ctx context.Context) error {
	if e.app == nil {
		return nil
	}
	err := e.app.Close(ctx)
	e.app = nil
	return err
}
