package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/RianMcHale/Container-Security-Scanner/internal/config"
	"github.com/RianMcHale/Container-Security-Scanner/internal/logging"
	"github.com/RianMcHale/Container-Security-Scanner/internal/scanner"
	"github.com/RianMcHale/Container-Security-Scanner/internal/server"
	"github.com/RianMcHale/Container-Security-Scanner/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the scan API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(debugMode)
		log := logging.Logger
		defer log.Sync()

		cfg := config.Get()

		st, err := store.Open(cfg.DBPath())
		if err != nil {
			return err
		}
		log.Infow("store ready", "db", cfg.DBPath())

		inv := scanner.NewTrivy(cfg.TrivyPath(), cfg.CacheDir(), cfg.ScanTimeout(), log)
		srv := server.New(cfg.ListenAddr(), st, inv, log)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return srv.Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "HTTP listen port")
	serveCmd.Flags().String("db", "", "path to the SQLite database file")
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("storage.db_path", serveCmd.Flags().Lookup("db"))
	rootCmd.AddCommand(serveCmd)
}
