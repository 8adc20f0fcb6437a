// Package cmd holds the placesctl commands.
package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manzanit0/placefinder/pkg/env"
	"github.com/manzanit0/placefinder/pkg/geocode"
	"github.com/manzanit0/placefinder/pkg/logger"
	"github.com/manzanit0/placefinder/pkg/mapview"
	"github.com/manzanit0/placefinder/pkg/places"
	"github.com/manzanit0/placefinder/pkg/search"
	"github.com/manzanit0/placefinder/pkg/session"
	"github.com/manzanit0/placefinder/pkg/whttp"
)

const ServiceName = "placesctl"

var (
	jsonOutput bool

	// newPlacesClient is replaced in tests.
	newPlacesClient = func() places.Client {
		return places.NewGoogleMapsClient(whttp.NewLoggingClient())
	}
)

var rootCmd = &cobra.Command{
	Use:   "placesctl",
	Short: "Search places with Google Places autocomplete",
	Long: `placesctl asks for a place, lists the autocomplete suggestions and prints
the coordinates of the one you pick.

The API key is read from GOOGLE_MAPS_API_KEY (or a .env file). Without it you
are asked for one; it is kept in memory only.

Example usage:
  placesctl                    # Interactive search, coordinates as a table
  placesctl --json             # Print the resolved marker as JSON`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

// Execute runs the root command until it finishes or the process is
// interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "print the resolved place as JSON")
}

func runRoot(cmd *cobra.Command, args []string) error {
	logger.InitCLISlog(ServiceName)

	cfg, err := env.Load()
	if err != nil {
		return err
	}

	var renderer mapview.Renderer = mapview.TableRenderer{}
	if jsonOutput {
		renderer = mapview.JSONRenderer{}
	}

	opts := []search.Option{search.WithThrottle(cfg.ThrottleInterval)}
	if cfg.ReverseGeocode {
		opts = append(opts, search.WithAnnotator(geocode.NewOpenstreetmapClient()))
	}

	client := newPlacesClient()
	p := &prompt{
		in:           bufio.NewReader(cmd.InOrStdin()),
		out:          cmd.OutOrStdout(),
		orchestrator: search.NewOrchestrator(client, client, opts...),
		renderer:     renderer,
	}

	sess := session.New(cfg.GoogleMapsAPIKey)
	if !sess.HasSecret() {
		key, err := p.readKey(cmd.InOrStdin())
		if err != nil {
			return err
		}

		sess.SetInput(key)
	}

	err = p.loop(cmd.Context(), sess)
	if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
		return nil
	}

	return err
}

// readKey asks for the API key without echoing it when stdin is a terminal.
// Otherwise the key is the first line of the prompt's input.
func (p *prompt) readKey(stdin io.Reader) (string, error) {
	fmt.Fprint(p.out, "Google Maps API key (not saved or written to disk): ")

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.out)
		if err != nil {
			return "", fmt.Errorf("read api key: %w", err)
		}

		return strings.TrimSpace(string(b)), nil
	}

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read api key: %w", err)
	}

	fmt.Fprintln(p.out)
	return strings.TrimSpace(line), nil
}
