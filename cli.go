package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cantalupo555/disclosure-report-downloader/internal/config"
	"github.com/cantalupo555/disclosure-report-downloader/internal/logger"
	"github.com/cantalupo555/disclosure-report-downloader/internal/runner"
)

// flagKeys maps command-line flags to configuration keys.
var flagKeys = map[string]string{
	"url":          "target_url",
	"mode":         "mode",
	"code":         "search_code",
	"download-dir": "download_dir",
	"headless":     "browser.headless",
	"exec":         "browser.exec_path",
	"from":         "filter.from",
	"to":           "filter.to",
}

// execute runs the CLI with args and returns the process exit code.
func execute(ctx context.Context, args []string) (int, error) {
	code := runner.ExitOK
	cmd := newRootCommand(os.Stdout, &code)
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		if code == runner.ExitOK {
			code = runner.ExitError
		}
		return code, err
	}
	return code, nil
}

func newRootCommand(stdout io.Writer, exitCode *int) *cobra.Command {
	v := viper.New()
	var (
		cfgFile string
		debug   bool
	)

	cmd := &cobra.Command{
		Use:   "reportdl",
		Short: "Download financial report PDFs from a disclosure portal",
		Long: `reportdl opens the disclosure portal in Chrome, finds the report
download links in the results table and clicks them one at a time so the
browser saves each PDF into the download directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for flag, key := range flagKeys {
				if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
					return fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}

			cfg, err := config.Load(v, cfgFile)
			if err != nil {
				return err
			}
			if debug {
				cfg.Logging.Level = "debug"
				cfg.Logging.Development = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			log, err := logger.New(cfg.Logging)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			out := runner.New(*cfg, log).Run(cmd.Context())
			out.Print(stdout)
			log.Info("Run finished",
				logger.String("summary", out.Summary()),
				logger.Duration("duration", out.Duration()))

			*exitCode = runner.ExitCode(out)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or ./config/config.yaml)")
	flags.BoolVar(&debug, "debug", false, "enable debug logging")
	flags.String("url", "", "portal URL to open")
	flags.String("mode", config.ModeDirect, "result acquisition mode: direct or search")
	flags.String("code", "", "search code (search mode)")
	flags.String("download-dir", "", "directory the browser saves PDFs into")
	flags.Bool("headless", true, "run the browser without a window")
	flags.String("exec", "", "browser executable (auto-detect if empty)")
	flags.String("from", "", "only download reports published on or after this date (YYYY-MM-DD)")
	flags.String("to", "", "only download reports published on or before this date (YYYY-MM-DD)")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "reportdl version %s\n", appVersion)
		},
	})

	return cmd
}
