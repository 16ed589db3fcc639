// Command screen is a headless screen page. It connects to the screen server
// of an object, runs the visualization state machine on the events it
// receives and posts frame poses back to the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/vk/realityserver/internal/app"
	"github.com/vk/realityserver/internal/ctxlog"
	"github.com/vk/realityserver/internal/screenclient"
	"github.com/vk/realityserver/internal/visualization"
)

// options are the parsed command line.
type options struct {
	screenURL     string
	apiURL        string
	namespace     string
	objectName    string
	width         float64
	height        float64
	physicalWidth float64
	poseRate      float64
	insecure      bool
	logLevel      string
	logFormat     string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parse(args []string, output io.Writer) (*options, error) {
	flagSet := flag.NewFlagSet("screen", flag.ContinueOnError)
	flagSet.SetOutput(output)

	opts := &options{}
	flagSet.StringVar(&opts.screenURL, "screen", "http://127.0.0.1:3033/socket.io/", "URL of the object's screen server.")
	flagSet.StringVar(&opts.apiURL, "api", "http://127.0.0.1:8080", "Base URL of the realityserver HTTP API.")
	flagSet.StringVar(&opts.namespace, "namespace", "/", "socket.io namespace.")
	flagSet.StringVar(&opts.objectName, "object", "", "Object shown until the server names one.")
	flagSet.Float64Var(&opts.width, "width", 1920, "Screen width in pixels.")
	flagSet.Float64Var(&opts.height, "height", 1080, "Screen height in pixels.")
	flagSet.Float64Var(&opts.physicalWidth, "physical-width", 0, "Display width in marker units. 0 keeps AR and screen scale equal.")
	flagSet.Float64Var(&opts.poseRate, "pose-rate", 20, "Maximum pose posts per second.")
	flagSet.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification.")
	flagSet.StringVar(&opts.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	flagSet.StringVar(&opts.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")

	if err := flagSet.Parse(args); err != nil {
		return nil, err
	}
	if opts.poseRate <= 0 {
		return nil, errors.New("pose-rate must be positive")
	}
	return opts, nil
}

func run(ctx context.Context, outW io.Writer, args []string) error {
	opts, err := parse(args, outW)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := app.NewLogger(opts.logLevel, opts.logFormat, "screen", outW)
	ctx = ctxlog.WithLogger(ctx, logger)

	client, err := screenclient.Dial(ctx, screenclient.Config{
		URL:                opts.screenURL,
		Namespace:          opts.namespace,
		InsecureSkipVerify: opts.insecure,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	poster := screenclient.NewPosePoster(opts.apiURL, screenclient.WithRateLimit(opts.poseRate, 1))
	machine := visualization.New(visualization.Options{
		ObjectName:    opts.objectName,
		ScreenWidth:   opts.width,
		ScreenHeight:  opts.height,
		PhysicalWidth: opts.physicalWidth,
		Renderer:      newLogRenderer(logger, client),
		Poster:        poster,
	})
	client.Bind(ctx, machine)
	logger.Info("Screen running.", "screen", opts.screenURL, "api", opts.apiURL)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return poster.Run(gctx)
	})
	return g.Wait()
}
