package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path"
	"strconv"
	"strings"
	"syscall"
	"time"

	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"

	"github.com/TeamNorCal/ledserver/client"
	"github.com/TeamNorCal/ledserver/internal/config"
	"github.com/TeamNorCal/ledserver/model"
	"github.com/TeamNorCal/ledserver/version"
)

var (
	logger = logxi.New("ledctl")

	server   = flag.String("server", "http://127.0.0.1:5000", "Base URL of the ledserver")
	timeout  = flag.Duration("timeout", 10*time.Second, "Time allowed for each command")
	offset   = flag.Float64("offset", 0, "Offset of the animation, in cycles")
	duration = flag.Float64("duration", 1, "Seconds per animation cycle")
	modifier = flag.String("modifier", "none", "Modifier, one of none, noise, smooth, random, blink or sparkle")
	repeat   = flag.Int("repeat", 0, "Also set every Nth pixel after the index when greater than 0")
	verbose  = flag.Bool("v", false, "When enabled will print internal logging for this tool")
)

func usage() {
	fmt.Fprintln(os.Stderr, path.Base(os.Args[0]))
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options] command [arguments]      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "  status                      show the strip size and render loop state")
	fmt.Fprintln(os.Stderr, "  leds                        list every pixel animation")
	fmt.Fprintln(os.Stderr, "  set index colour [colour]   set the animation of a pixel, colours are #rrggbb")
	fmt.Fprintln(os.Stderr, "  off                         blank the strip and stop rendering")
	fmt.Fprintln(os.Stderr, "  on                          set every pixel to white")
	fmt.Fprintln(os.Stderr, "  brightness value            change the brightness, within [0, 1]")
	fmt.Fprintln(os.Stderr, "  demo                        noise through green, red and blue along the strip")
	fmt.Fprintln(os.Stderr, "  watch                       print the status every second until interrupted")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "Options:")
	fmt.Fprintln(os.Stderr, "")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "options can also be extracted from environment variables by changing dashes '-' to underscores and using upper case.")
}

func init() {
	flag.Usage = usage
}

func main() {
	if err := config.Load(flag.CommandLine, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
	if *verbose {
		logger.SetLevel(logxi.LevelDebug)
	}
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(-1)
	}

	if strings.ToLower(flag.Arg(0)) == "watch" {
		if err := watch(); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(-1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	remote := client.NewRemote(ctx, *server, logger)
	if err := command(ctx, remote, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
}

func printStatus(status *model.Status) {
	fmt.Printf("%d pixels at %.1f fps, %s at frame %d (%.2f fps measured, %d overruns), brightness %.2f\n",
		status.PixelCount, status.FramesPerSecond, status.State, status.Frame, status.MeasuredFPS, status.Overruns, status.Brightness)
}

// watch polls the server status until interrupted
func watch() (err error) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	remote := client.NewRemote(ctx, *server, logger)

	statusC := make(chan *model.Status, 1)
	errorC := make(chan error, 1)
	quitC := make(chan struct{})
	defer close(quitC)

	go client.NewMonitor(remote, statusC, errorC).Run(ctx, time.Second, quitC)

	for {
		select {
		case status := <-statusC:
			printStatus(status)
		case err := <-errorC:
			fmt.Fprintln(os.Stderr, err.Error())
		case <-ctx.Done():
			return nil
		}
	}
}

func command(ctx context.Context, remote *client.Remote, cmd string, args []string) (err error) {
	switch strings.ToLower(cmd) {
	case "status":
		status, err := remote.Status(ctx)
		if err != nil {
			return err
		}
		printStatus(status)
		return nil

	case "leds":
		leds, err := remote.Leds(ctx)
		if err != nil {
			return err
		}
		for i := 0; i < len(leds); i++ {
			pixel, isPresent := leds[strconv.Itoa(i)]
			if !isPresent {
				continue
			}
			hex := make([]string, 0, len(pixel.Colours))
			for _, c := range pixel.Colours {
				hex = append(hex, c.Hex())
			}
			fmt.Printf("%4d %-8s offset %-6g duration %-6g %s\n", i, pixel.Modifier, pixel.Offset, pixel.Duration, strings.Join(hex, " "))
		}
		return nil

	case "set":
		if len(args) < 2 {
			return errors.New("set needs an index and at least one colour")
		}
		index, errGo := strconv.Atoi(args[0])
		if errGo != nil {
			return errors.Wrapf(errGo, "index %q", args[0])
		}
		pixel := model.Pixel{
			Offset:   *offset,
			Duration: *duration,
			Modifier: *modifier,
		}
		for _, arg := range args[1:] {
			c, errGo := model.ParseRGB(arg)
			if errGo != nil {
				return errors.Wrapf(errGo, "colour %q", arg)
			}
			pixel.Colours = append(pixel.Colours, c)
		}
		return remote.SetPixel(ctx, index, pixel, *repeat)

	case "off":
		return remote.AllOff(ctx)

	case "on":
		return remote.AllOn(ctx)

	case "brightness":
		if len(args) != 1 {
			return errors.New("brightness needs a value")
		}
		b, errGo := strconv.ParseFloat(args[0], 64)
		if errGo != nil {
			return errors.Wrapf(errGo, "brightness %q", args[0])
		}
		return remote.SetBrightness(ctx, b)

	case "demo":
		return remote.Demo(ctx)
	}
	return errors.Errorf("unknown command %q", cmd)
}
