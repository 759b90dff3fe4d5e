package cmd

import (
	"context"

	"logsift/internal/collector"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var collectCmd = &cobra.Command{
	Use:   "collect",
	Short: "Download access and error logs from the remote host",
	Long: `Connect to SFTP_HOST, list REMOTE_LOG_PATH and download every access* and
error* file into ACCESS_LOG_DIR and ERROR_LOG_DIR. Files ending in .gz are
decompressed and the archive removed. An existing local copy is overwritten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		_, err := collect(ctx)
		return err
	},
}

func init() {
	rootCmd.AddCommand(collectCmd)
}

func collect(ctx context.Context) (*collector.Report, error) {
	session, err := collector.DialSFTP(cfg.Remote, logger)
	if err != nil {
		logger.WithCaller().Error("Failed to open SFTP session", logger.Args("error", err))
		return nil, err
	}
	defer func() {
		if err := session.Close(); err != nil {
			logger.Warn("Failed to close SFTP session", logger.Args("error", err))
		}
	}()

	c := collector.NewCollector(collector.Config{
		RemoteDir: cfg.Remote.Path,
		AccessDir: cfg.LogSources.AccessDir,
		ErrorDir:  cfg.LogSources.ErrorDir,
	}, session, logger)

	report, err := c.Run(ctx)
	if err != nil {
		return report, err
	}
	printCollectReport(report)
	return report, nil
}

func printCollectReport(r *collector.Report) {
	data := pterm.TableData{
		{"Listed", "Downloaded", "Decompressed", "Skipped", "Failed", "Size"},
		{
			pterm.Sprint(r.Listed),
			pterm.Sprint(r.Downloaded),
			pterm.Sprint(r.Decompressed),
			pterm.Sprint(r.Skipped),
			pterm.Sprint(r.Failed),
			humanize.Bytes(uint64(r.Bytes)),
		},
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
