// FILE: lixenwraith/yacman/cmd/yacman/main.go
// Command yacman inspects and edits lock-protected configuration files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/lixenwraith/yacman"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var (
	version = "0.3.0"

	rootCmd = &cobra.Command{
		Use:   "yacman",
		Short: "Read and edit configuration files shared between processes",
		Long: `yacman reads and edits YAML, JSON and TOML configuration files using
the lock marker protocol: a writer creates lock.<file> next to the target
and removes it when done. Other yacman processes wait for the marker.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogger(viper.GetString("log-level"))
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of yacman",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "yacman version %s\n", version)
		},
	}
)

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringP("file", "f", "", "config file (default from $YACMAN_CONFIG)")
	flags.Duration("wait", yacman.DefaultWaitMax, "maximum time to wait for a held lock")
	flags.Bool("skip-read-lock", false, "read without taking the lock marker")
	flags.String("schema", "", "JSON Schema document validated against before writes")
	flags.String("log-level", "warn", "log level (debug, info, warn, error)")

	bindFlags(flags, "file", "wait", "skip-read-lock", "schema", "log-level")

	rootCmd.AddCommand(getCmd, setCmd, delCmd, dumpCmd, statusCmd, unlockCmd, touchCmd, validateCmd, watchCmd, versionCmd)
}

// bindFlags makes each named flag readable through viper, with env fallback.
func bindFlags(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func initConfig() {
	viper.AutomaticEnv()
	viper.SetEnvPrefix("YACMAN")
	// YACMAN_SKIP_READ_LOCK for skip-read-lock
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
}

func initLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
	return nil
}

// targetPath returns --file or $YACMAN_FILE, then $YACMAN_CONFIG.
func targetPath() (string, error) {
	if path := viper.GetString("file"); path != "" {
		return path, nil
	}
	path, err := yacman.SelectConfig("", []string{"YACMAN_CONFIG"}, "", true)
	if err != nil {
		return "", fmt.Errorf("%w (use --file or set YACMAN_CONFIG)", err)
	}
	return path, nil
}

// newBuilder applies the global flags to a builder for the target file.
func newBuilder(ctx context.Context) (*yacman.Builder, error) {
	path, err := targetPath()
	if err != nil {
		return nil, err
	}

	wait := viper.GetDuration("wait")
	if wait < 0 {
		wait = 0
	}

	b := yacman.NewBuilder().
		WithFile(path).
		WithWaitMax(wait).
		WithContext(ctx).
		WithLogger(slog.Default())
	if viper.GetBool("skip-read-lock") {
		b = b.SkipReadLock()
	}
	if schema := viper.GetString("schema"); schema != "" {
		b = b.WithSchema(schema).WithWriteValidate(true)
	}
	return b, nil
}

func openHandle(ctx context.Context) (*yacman.Handle, error) {
	b, err := newBuilder(ctx)
	if err != nil {
		return nil, err
	}
	return b.Build()
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

