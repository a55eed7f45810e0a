package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/go-stack/stack"
	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver"
	"github.com/TeamNorCal/ledserver/internal/config"
	"github.com/TeamNorCal/ledserver/simulator"
	"github.com/TeamNorCal/ledserver/version"
)

var (
	logger = logxi.New("ledserver")

	cfg = config.Register(flag.CommandLine)
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       HTTP → animation → LEDs (ledserver)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "ledserver animates an addressable LED strip and accepts per pixel animations over HTTP")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Environment Variables:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
	fmt.Fprintln(os.Stderr, "a .env file in the working directory is loaded before the environment is consulted.")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "log levels are handled by the LOGXI env variables, these are documented at https://github.com/mgutz/logxi")
}

func init() {
	flag.Usage = usage
}

func main() {
	if err := config.Load(flag.CommandLine, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		flag.Usage()
		os.Exit(-1)
	}

	if cfg.Verbose {
		logger.SetLevel(logxi.LevelDebug)
	}
	logger.Debug(fmt.Sprintf("%s built at %s, against commit id %s", os.Args[0], version.BuildTime, version.GitHash))
	cfg.Log(logger)

	if err := run(cfg); err != nil {
		logger.Error(err.Error(), "stack", stack.Trace().TrimRuntime())
		os.Exit(-1)
	}
}

func run(cfg *config.Config) (err error) {
	quitC := make(chan struct{})
	errorC := make(chan error, 8)
	msgC := make(chan string, 8)

	sink, termQuitC, err := openSinks(cfg)
	if err != nil {
		return err
	}
	defer sink.Close()

	if err = sink.SetBrightness(cfg.Brightness); err != nil {
		return err
	}

	state := ledserver.NewAnimationState(cfg.PixelCount)
	if cfg.Scene != "" {
		scene, err := ledserver.LoadScene(cfg.Scene)
		if err != nil {
			return err
		}
		if err = scene.Apply(state, logger); err != nil {
			return err
		}
		logger.Info("scene loaded", "file", cfg.Scene, "entries", len(scene))
	}

	eval := ledserver.NewEvaluator(cfg.FramesPerSecond, cfg.NoiseSeed, time.Now().UnixNano())
	renderer := ledserver.NewRenderer(state, eval, sink, logger)
	defer renderer.Metrics().Stop()

	go msgWatch(msgC, errorC, quitC)

	if err = renderer.Start(errorC, quitC); err != nil {
		return err
	}

	gateway := ledserver.NewGateway(state, renderer, sink, cfg.Brightness, logger)
	gateway.Start(cfg.Address(), errorC, quitC)

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigC)

	select {
	case sig := <-sigC:
		msgC <- fmt.Sprintf("%s received, closing\n", sig.String())
	case <-termQuitC:
		msgC <- "simulator closed\n"
	}
	close(quitC)

	select {
	case <-state.Lifecycle().Done():
	case <-time.After(2 * time.Second):
		return errors.New("render loop did not stop " + stack.Trace().TrimRuntime().String())
	}
	logger.Info("exiting", "frames", renderer.Frame())
	return nil
}

// openSinks creates the configured sinks, combining them when there is more
// than one.  The returned channel is closed if a terminal sink is quit by
// the user, and is nil otherwise
func openSinks(cfg *config.Config) (sink ledserver.OutputSink, termQuitC <-chan struct{}, err error) {
	sinks := []ledserver.OutputSink{}
	for _, name := range cfg.SinkNames() {
		switch name {
		case "mock":
			sinks = append(sinks, ledserver.NewMockSink(cfg.PixelCount, logger))
		case "fadecandy":
			fc := ledserver.NewFadeCandy(cfg.FadeCandy, uint8(cfg.OPCChannel), cfg.PixelCount, logger)
			if err := fc.Connect(); err != nil {
				logger.Warn("fadecandy not reachable, frames will be dropped until it is", "error", err)
			}
			sinks = append(sinks, fc)
		case "term":
			strip, err := simulator.NewTerminalStrip(cfg.PixelCount, cfg.LedSize, "ledserver "+cfg.Address())
			if err != nil {
				return nil, nil, err
			}
			termQuitC = strip.Watch()
			sinks = append(sinks, strip)
		}
	}

	if len(sinks) == 1 {
		return sinks[0], termQuitC, nil
	}
	return ledserver.NewFanOut(sinks...), termQuitC, nil
}
