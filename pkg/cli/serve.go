package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/EquablePanic4/codli-gci/pkg/api"
	"github.com/EquablePanic4/codli-gci/pkg/observability"
	"github.com/EquablePanic4/codli-gci/pkg/store"
)

var (
	serveDB   string
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve recorded run history over HTTP",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.OpenSQLiteStore(serveDB)
		if err != nil {
			return err
		}
		defer st.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := observability.NewLogger(nil, os.Getenv("CODLI_DEBUG") != "")
		return api.NewServer(st, logger).ListenAndServe(ctx, serveAddr)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveDB, "db", "", "run history database")
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.MarkFlagRequired("db")
}
