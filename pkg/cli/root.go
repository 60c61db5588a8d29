// Package cli implements the recallctl operator commands.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/recallhq/recall/config"
	"github.com/recallhq/recall/internal/bootstrap"
	"github.com/recallhq/recall/pkg/logger"
	"github.com/recallhq/recall/pkg/storage"
	"github.com/recallhq/recall/pkg/version"
)

// TagEnv supplies the default container tag.
const TagEnv = "RECALL_TAG"

type options struct {
	configPath string
	file       string
	tag        string
	format     string
	verbose    bool
}

// env is the per-invocation state shared by subcommands.
type env struct {
	opts  *options
	cfg   *config.Config
	log   logger.Logger
	store storage.Store
	svc   *bootstrap.Services
	close []func() error
}

// NewRootCommand builds the recallctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	e := &env{opts: opts}

	root := &cobra.Command{
		Use:   "recallctl",
		Short: "Inspect and quiz a recall memory store",
		Long: `recallctl runs the recall insight engine against the configured store
or a JSON export, without starting the HTTP server.

Examples:
  recallctl --tag alice alerts --mode rules
  recallctl --file export.json --tag alice digest --format text
  recallctl --tag alice quiz answer 4f2c... --correct`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "help" {
				return nil
			}
			if opts.tag == "" {
				opts.tag = os.Getenv(TagEnv)
			}
			if opts.tag == "" {
				return fmt.Errorf("--tag is required (or set %s)", TagEnv)
			}
			if opts.format != "json" && opts.format != "text" {
				return fmt.Errorf("unknown format %q, want json or text", opts.format)
			}
			return e.open(cmd.Context())
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.shutdown()
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to configuration file")
	root.PersistentFlags().StringVar(&opts.file, "file", "", "Read memories from a JSON export instead of the configured store")
	root.PersistentFlags().StringVarP(&opts.tag, "tag", "t", "", "Container tag (user) to operate on")
	root.PersistentFlags().StringVarP(&opts.format, "format", "f", "json", "Output format: json or text")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(
		newAlertsCommand(e),
		newPatternsCommand(e),
		newSearchCommand(e),
		newDigestCommand(e),
		newQuizCommand(e),
		newExportCommand(e),
	)
	return root
}

// Execute runs recallctl with os.Args.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

func (e *env) open(ctx context.Context) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	defer func() {
		if err != nil {
			_ = e.shutdown()
		}
	}()

	overrides := map[string]interface{}{}
	if e.opts.file != "" {
		overrides["storage.type"] = "memory"
	}
	cfg, err := config.Load(e.opts.configPath, overrides)
	if err != nil {
		return err
	}
	e.cfg = cfg

	level := logger.WarnLevel
	if e.opts.verbose {
		level = logger.DebugLevel
	}
	e.log = logger.New(&logger.Config{Level: level, Format: "text", Output: "stderr"})

	if e.opts.file != "" {
		store, err := loadFileStore(e.opts.file, e.opts.tag)
		if err != nil {
			return err
		}
		e.store = store
	} else {
		store, err := bootstrap.NewStore(cfg)
		if err != nil {
			return fmt.Errorf("open %s storage: %w", cfg.Storage.Type, err)
		}
		e.store = store
	}
	e.close = append(e.close, e.store.Close)

	c, closeCache, err := bootstrap.NewCache(ctx, cfg, e.log)
	if err != nil {
		return err
	}
	e.close = append(e.close, closeCache)

	gen, err := bootstrap.NewGenerator(cfg)
	if err != nil {
		return err
	}

	e.svc = bootstrap.NewServices(cfg, e.store, c, gen, e.log)
	return nil
}

func (e *env) shutdown() error {
	var errs []error
	for i := len(e.close) - 1; i >= 0; i-- {
		if err := e.close[i](); err != nil {
			errs = append(errs, err)
		}
	}
	e.close = nil
	return errors.Join(errs...)
}

// persist writes file-backed changes back to the export.
func (e *env) persist(ctx context.Context) error {
	if e.opts.file == "" {
		return nil
	}
	return saveFileStore(ctx, e.opts.file, e.store)
}

func (e *env) text() bool { return e.opts.format == "text" }

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
