package cli

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khanglvm/voice-hub/internal/rpc"
)

// NewServeCmd creates the 'serve' command for running the stdio server.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the voice command server (stdio transport)",
		Long: `Start the voice-hub server on stdio transport.

A host editor sends one JSON-RPC request per line and reads one
response per line. Methods: dispatch, choose, search, stats,
categories, help, context.set, context.reset.`,
		Example: `  # Run directly
  voice-hub serve

  # From an editor host
  my-editor --command-backend "voice-hub serve"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

// runServe starts the stdio server with graceful shutdown on
// SIGINT/SIGTERM/SIGQUIT.
func runServe() error {
	sess, err := buildEngine()
	if err != nil {
		return err
	}
	defer sess.close()

	server := rpc.NewServer(sess.engine, sess.index)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Run()
	}()

	stats := sess.engine.Catalog().Stats()
	log.Printf("voice-hub serving %d commands in %d categories", stats.Total, len(stats.ByCategory))

	select {
	case sig := <-sigChan:
		log.Printf("Received %v, shutting down", sig)
		return nil
	case err := <-errChan:
		return err
	}
}
