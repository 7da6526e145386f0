package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mamadbah2/inventario/internal/config"
	"github.com/mamadbah2/inventario/internal/repository/flatfile"
	"github.com/mamadbah2/inventario/internal/service/commands"
	"github.com/mamadbah2/inventario/internal/service/reporting"
	"github.com/mamadbah2/inventario/pkg/logger"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	in  *bufio.Reader
	out io.Writer

	envFile string
	file    string

	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCommand builds the inventario command tree. Without a subcommand it
// runs the interactive menu.
func NewRootCommand(in io.Reader, out io.Writer) *cobra.Command {
	rt := &app{in: bufio.NewReader(in), out: out}

	cmd := &cobra.Command{
		Use:           "inventario",
		Short:         "Manage a pipe-delimited product inventory from the console",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if rt.logger != nil {
				_ = rt.logger.Sync()
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.runMenu(cmd)
		},
	}
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(out)

	cmd.PersistentFlags().StringVar(&rt.envFile, "env", "", "load settings from this .env file")
	cmd.PersistentFlags().StringVar(&rt.file, "file", "", "inventory file (overrides INVENTORY_FILE)")

	cmd.AddCommand(newReportCommand(rt), newScheduleCommand(rt))
	return cmd
}

func (rt *app) setup() error {
	cfg, err := config.Load(rt.envFile)
	if err != nil {
		return err
	}
	if rt.file != "" {
		cfg.Inventory.File = rt.file
	}

	log, err := logger.New(logger.Options{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		MaxSizeMB: cfg.Logging.MaxSizeMB,
		MaxFiles:  cfg.Logging.MaxFiles,
	})
	if err != nil {
		return err
	}
	zap.ReplaceGlobals(log)

	rt.cfg = cfg
	rt.logger = log
	return nil
}

// openStore loads the inventory, asking whether to retry when loading fails.
func (rt *app) openStore(interactive bool) (*flatfile.Store, error) {
	store := flatfile.NewStore(rt.cfg.Inventory.File, logger.Named(rt.logger, "store"))
	for {
		report, err := store.Load()
		if err == nil {
			if report.Created {
				fmt.Fprintf(rt.out, "[INFO] Inventory file '%s' created.\n", store.Path())
			}
			fmt.Fprintf(rt.out, "[INFO] %d products loaded.", report.Loaded)
			if report.Skipped > 0 {
				fmt.Fprintf(rt.out, " %d malformed lines skipped.", report.Skipped)
			}
			fmt.Fprintln(rt.out)
			return store, nil
		}

		fmt.Fprintf(rt.out, "[ERROR] Could not load '%s': %v\n", store.Path(), err)
		if !interactive || !rt.confirm("Retry? (y/n): ") {
			return nil, err
		}
	}
}

func (rt *app) confirm(label string) bool {
	fmt.Fprint(rt.out, label)
	answer, _ := rt.in.ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "si", "sí":
		return true
	}
	return false
}

func (rt *app) runMenu(cmd *cobra.Command) error {
	store, err := rt.openStore(true)
	if err != nil {
		return err
	}

	report := reporting.NewService(store, rt.cfg.Inventory.LowStockThreshold, logger.Named(rt.logger, "svc.reporting"))
	menu := commands.NewService(store, report, rt.in, rt.out, logger.Named(rt.logger, "svc.commands"))
	return menu.Run(cmd.Context())
}
