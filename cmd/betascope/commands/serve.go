package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/betascope/internal/api"
)

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API server over the saved portfolio.

Endpoints:
  GET    /health                           - Health check
  GET    /api/portfolio                    - Holdings with weights
  POST   /api/portfolio/holdings           - Add a holding
  PUT    /api/portfolio/holdings/{ticker}  - Update shares and/or price
  DELETE /api/portfolio/holdings/{ticker}  - Remove a holding
  POST   /api/portfolio/clear              - Remove every holding
  POST   /api/portfolio/save               - Persist holdings
  POST   /api/portfolio/load               - Restore holdings
  POST   /api/analyze                      - Portfolio beta report
  GET    /api/watchlist                    - Watchlist with beta
  POST   /api/watchlist                    - Add a ticker
  DELETE /api/watchlist/{ticker}           - Remove a ticker
  POST   /api/watchlist/recommendations    - Rank tickers toward a target beta
  GET    /api/watchlist/diversification    - Tier counts

Example:
  go run ./cmd/betascope serve
  go run ./cmd/betascope serve --port 8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var servePort string

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&servePort, "port", "", "API server port (default: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// Override port if flag is set
	if servePort != "" {
		a.cfg.Port = servePort
	}

	if err := a.loadSaved(ctx); err != nil {
		return err
	}

	router := api.NewRouter(a.session, a.log)
	server := api.New(a.cfg, a.log, router)

	// Ctrl+C / SIGTERM cancels ctx, Run then drains in-flight requests
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "\n✅ Server running on http://localhost:%s\n", a.cfg.Port)
	fmt.Fprintln(out, "Press Ctrl+C to stop")

	return server.Run(ctx)
}
