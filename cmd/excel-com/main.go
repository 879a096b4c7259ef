package main

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/negokaz/excel-com/internal/automation"
	"github.com/negokaz/excel-com/internal/config"
	"github.com/negokaz/excel-com/internal/excel"
	"github.com/negokaz/excel-com/internal/logging"
	"github.com/negokaz/excel-com/internal/server"
	"github.com/negokaz/excel-com/internal/tools"
)

var exampleUsage = strings.TrimSpace(`
  excel-com demo --sheet-name 売上データ2025 --output test.xlsx
  excel-com serve --config $HOME/.excel-com/config.toml
  excel-com verify --file ./test.xlsx --range A1:B2
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := config.DefaultConfig()
	var cfgPath string

	log := logging.New(false)

	// load merges the config file under the flags and validates the result.
	load := func(cmd *cobra.Command) error {
		cfgFile := cfgPath
		if cfgFile == "" {
			cfgFile = config.DefaultConfigPath()
		}

		changed := map[string]bool{}
		cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

		if err := config.Load(&cfg, cfgFile, changed); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		log = logging.New(cfg.Debug)
		log.Debug().Interface("config", cfg).Msg("configuration")
		return nil
	}

	root := &cobra.Command{
		Use:           "excel-com",
		Short:         "Drive Excel through COM automation",
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.excel-com/config.toml)")
	root.PersistentFlags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")

	demo := &cobra.Command{
		Use:   "demo",
		Short: "Create a workbook, write a block of numbers, save it and quit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			apt := automation.NewApartment()
			defer apt.Close()

			err := apt.Do(cmd.Context(), func() error {
				defer func() {
					if err := excel.Shutdown(); err != nil {
						log.Warn().Err(err).Msg("shutdown")
					}
				}()
				return runDemo(cmd, cfg, log)
			})
			if err != nil {
				// The demo reports failures without failing the process.
				fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
			}
			return nil
		},
	}
	demo.Flags().StringVar(&cfg.ProgID, "prog-id", cfg.ProgID, "program identifier of the automation server")
	demo.Flags().BoolVar(&cfg.Visible, "visible", cfg.Visible, "show the application window")
	demo.Flags().BoolVar(&cfg.DisplayAlerts, "display-alerts", cfg.DisplayAlerts, "let the application show modal prompts")
	demo.Flags().StringVar(&cfg.SheetName, "sheet-name", cfg.SheetName, "name given to the active sheet")
	demo.Flags().StringVar(&cfg.Output, "output", cfg.Output, "file the workbook is saved to")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Expose the application as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg, log)
		},
	}
	serve.Flags().StringVar(&cfg.ProgID, "prog-id", cfg.ProgID, "program identifier of the automation server")
	serve.Flags().BoolVar(&cfg.Visible, "visible", cfg.Visible, "show the application window")
	serve.Flags().BoolVar(&cfg.DisplayAlerts, "display-alerts", cfg.DisplayAlerts, "let the application show modal prompts")
	serve.Flags().IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "maximum number of cells returned per page by excel_read_file")

	var verifyFile, verifySheet, verifyRange string
	verify := &cobra.Command{
		Use:   "verify",
		Short: "Print a range of a saved workbook",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := load(cmd); err != nil {
				return err
			}
			file := verifyFile
			if file == "" {
				file = cfg.Output
			}
			if err := excel.CheckRangeSize(verifyRange, cfg.PageSize); err != nil {
				return err
			}
			v, err := excel.ReadBack(file, verifySheet, verifyRange)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}
	verify.Flags().StringVar(&verifyFile, "file", "", "workbook to read (default: the configured output)")
	verify.Flags().StringVar(&verifySheet, "sheet", "", "sheet to read (default: the first sheet)")
	verify.Flags().StringVar(&verifyRange, "range", "A1:B2", "range to read")
	verify.Flags().IntVar(&cfg.PageSize, "page-size", cfg.PageSize, "maximum number of cells verify reads")

	root.AddCommand(demo, serve, verify)

	if err := root.ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("excel-com")
		os.Exit(1)
	}
}

// runDemo must run on the apartment thread.
func runDemo(cmd *cobra.Command, cfg config.Config, log zerolog.Logger) error {
	app, err := excel.Shared(cfg.ProgID, automation.WithLogger(log))
	if err != nil {
		return err
	}
	if err := app.SetVisible(cfg.Visible); err != nil {
		return err
	}
	if err := app.SetDisplayAlerts(cfg.DisplayAlerts); err != nil {
		return err
	}

	book, err := app.AddWorkbook()
	if err != nil {
		return err
	}
	defer book.Release()

	sheet, err := book.ActiveSheet()
	if err != nil {
		return err
	}
	defer sheet.Release()
	if err := sheet.SetName(cfg.SheetName); err != nil {
		return err
	}

	rng, err := sheet.Range("A1:B2")
	if err != nil {
		return err
	}
	defer rng.Release()

	block := automation.Matrix([][]automation.Value{
		{automation.Double(1.55), automation.Double(2.333)},
		{automation.Double(3.14), automation.Int(4)},
	})
	if err := rng.SetValue(block); err != nil {
		return err
	}
	v, err := rng.Value()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), v.String())

	path, err := book.SaveAs(cfg.Output)
	if err != nil {
		return err
	}
	log.Info().Str("path", path).Msg("workbook saved")

	if err := book.Close(false); err != nil {
		return err
	}
	return app.Quit()
}

func runServe(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	apt := automation.NewApartment()
	defer apt.Close()

	// The workspace keeps the first application it gets, so the settings
	// are applied once per connection.
	provider := func() (*excel.Application, error) {
		app, err := excel.Shared(cfg.ProgID, automation.WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := app.SetVisible(cfg.Visible); err != nil {
			return nil, err
		}
		if err := app.SetDisplayAlerts(cfg.DisplayAlerts); err != nil {
			return nil, err
		}
		return app, nil
	}

	ws := tools.NewWorkspace(apt, provider, log, cfg.PageSize)
	s := server.New(getVersion(), ws)
	log.Info().Str("progId", cfg.ProgID).Msg("serving on stdio")
	serveErr := s.Start()

	if err := ws.Close(ctx); err != nil {
		log.Warn().Err(err).Msg("release workbooks")
	}
	if err := apt.Do(ctx, excel.Shutdown); err != nil {
		log.Warn().Err(err).Msg("shutdown")
	}
	return serveErr
}
