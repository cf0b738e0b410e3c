// FILE: lixenwraith/yacman/cmd/yacman/commands.go
package main

import (
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"path/filepath"
	"time"

	"github.com/lixenwraith/yacman"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	dumpFormat  string
	unlockForce bool
	touchID     string
	touchDelay  time.Duration

	getCmd = &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored at a dotted key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			h, err := openHandle(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			v, ok := h.Get(args[0])
			if !ok {
				return fmt.Errorf("key not found: %s", args[0])
			}
			return printValue(cmd.OutOrStdout(), v)
		},
	}

	setCmd = &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a key under the lock and write the file",
		Long: `Set takes the lock, re-reads the file, applies the change, writes it and
releases the lock. VALUE is parsed as a YAML scalar or flow collection,
so "8080" becomes a number and "[a, b]" a list.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			h, err := openHandle(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			value := parseValue(args[1])
			return h.Transaction(func(h *yacman.Handle) error {
				return h.Set(args[0], value)
			})
		},
	}

	delCmd = &cobra.Command{
		Use:   "del KEY",
		Short: "Remove a key under the lock and write the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			h, err := openHandle(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			return h.Transaction(func(h *yacman.Handle) error {
				if !h.Delete(args[0]) {
					return fmt.Errorf("key not found: %s", args[0])
				}
				return nil
			})
		},
	}

	dumpCmd = &cobra.Command{
		Use:   "dump",
		Short: "Print the whole document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := yacman.ParseFormat(dumpFormat)
			if err != nil {
				return err
			}

			ctx, cancel := signalContext()
			defer cancel()

			h, err := openHandle(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			out, err := h.Render(format)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the target path and whether its lock is held",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path, err := targetPath()
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			marker := yacman.MarkerPath(abs)
			exists, _ := afero.Exists(fs, abs)

			fmt.Fprintf(out, "file:   %s\n", abs)
			fmt.Fprintf(out, "exists: %t\n", exists)
			fmt.Fprintf(out, "lock:   %s\n", marker)
			if info, err := fs.Stat(marker); err == nil {
				fmt.Fprintf(out, "locked: yes (since %s, %s ago)\n",
					info.ModTime().Format(time.RFC3339), time.Since(info.ModTime()).Round(time.Second))
			} else {
				fmt.Fprintln(out, "locked: no")
			}
			return nil
		},
	}

	unlockCmd = &cobra.Command{
		Use:   "unlock",
		Short: "Remove a lock marker left behind by a crashed writer",
		Long: `Unlock deletes the lock marker of the target file. Markers carry no owner,
so yacman cannot tell a crashed writer from a slow one: only use this when
no process is writing the file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if !unlockForce {
				return errors.New("refusing to remove the lock without --force")
			}
			path, err := targetPath()
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}

			fs := afero.NewOsFs()
			marker := yacman.MarkerPath(abs)
			if !yacman.MarkerExists(fs, marker) {
				fmt.Fprintf(out, "%s is not locked\n", abs)
				return nil
			}
			if err := yacman.RemoveMarker(fs, marker); err != nil {
				return err
			}
			fmt.Fprintf(out, "removed %s\n", marker)
			return nil
		},
	}

	touchCmd = &cobra.Command{
		Use:   "touch",
		Short: "Lock the file, record an id in it, and release it",
		Long: `Touch opens the file read-only, promotes it to writable, waits a random
interval up to --delay, sets ID: 1, writes and releases the lock. Running
many touch processes at once against one file must leave every id in it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if touchID == "" {
				return errors.New("--id is required")
			}

			ctx, cancel := signalContext()
			defer cancel()

			h, err := openHandle(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			if _, err := h.MakeWritable(""); err != nil {
				return err
			}
			time.Sleep(randomDelay(touchDelay))

			if err := h.Set(touchID, 1); err != nil {
				return err
			}
			if err := h.Write(); err != nil {
				return err
			}
			_, err = h.MakeReadOnly()
			return err
		},
	}

	validateCmd = &cobra.Command{
		Use:   "validate",
		Short: "Check the file against the --schema document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, cancel := signalContext()
			defer cancel()

			b, err := newBuilder(ctx)
			if err != nil {
				return err
			}
			if b.Options().SchemaSource == "" {
				return errors.New("validate needs --schema")
			}

			// Construction validates the loaded document
			h, err := b.Build()
			if err != nil {
				return err
			}
			defer h.Close()

			fmt.Fprintf(out, "%s: valid\n", h.Path())
			return nil
		},
	}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Print changes to the file and its lock until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			ctx, cancel := signalContext()
			defer cancel()

			h, err := openHandle(ctx)
			if err != nil {
				return err
			}
			defer h.Close()

			events, err := h.Watch(ctx)
			if err != nil {
				return err
			}
			for ev := range events {
				fmt.Fprintf(out, "%s %s %s\n", time.Now().Format(time.RFC3339), ev.Kind, ev.Path)
			}
			return nil
		},
	}
)

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "auto", "output format (yaml, json, toml, auto)")
	unlockCmd.Flags().BoolVar(&unlockForce, "force", false, "remove the marker even though its owner is unknown")
	touchCmd.Flags().StringVar(&touchID, "id", "", "key recorded in the file")
	touchCmd.Flags().DurationVar(&touchDelay, "delay", time.Second, "upper bound of the random pause while holding the lock")
}

// parseValue reads a command-line value as YAML, keeping the raw string
// when it does not parse or parses to a document that is not a value.
func parseValue(s string) any {
	var v any
	if err := yaml.Unmarshal([]byte(s), &v); err != nil || v == nil {
		return s
	}
	return v
}

func printValue(w io.Writer, v any) error {
	switch v.(type) {
	case map[string]any, []any:
		out, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(out)
		return err
	default:
		_, err := fmt.Fprintln(w, v)
		return err
	}
}

// randomDelay returns a pause in [0, limit).
func randomDelay(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(rand.Int64N(int64(limit)))
}
