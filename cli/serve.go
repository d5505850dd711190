package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"library-catalog/web"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the catalog over HTTP",
	Long: `Start the HTTP mirror: JSON endpoints under /api and Prometheus
metrics at /metrics. Stops cleanly on SIGINT or SIGTERM.

Examples:
  library serve
  library serve --port 8080`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		sc := a.cfg.Server
		if servePort != 0 {
			sc.Port = servePort
		}
		srv := web.NewServer(a.mgr, web.Config{
			CORSOrigins:       sc.CORSOrigins,
			RateLimitRequests: sc.RateLimitRequests,
			RateLimitWindow:   sc.RateLimitWindow,
			TopN:              a.cfg.Recommend.TopN,
		})
		return web.ListenAndServe(ctx, sc.Addr(), srv.Router(), sc.ReadTimeout, sc.WriteTimeout, sc.ShutdownTimeout)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Listen port (overrides server.port)")
	rootCmd.AddCommand(serveCmd)
}
