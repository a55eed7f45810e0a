package main

// The simulator is an Open Pixel Control server that draws the frames it
// receives on the terminal, standing in for a fadecandy board

import (
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	logxi "github.com/mgutz/logxi/v1"

	"github.com/TeamNorCal/ledserver/internal/config"
	"github.com/TeamNorCal/ledserver/simulator"
	"github.com/TeamNorCal/ledserver/version"
)

var (
	listen     = flag.String("listen", "127.0.0.1:7890", "Address the OPC server binds to")
	pixelCount = flag.Int("pixel-count", 50, "Number of pixels drawn")
	ledSize    = flag.Int("led-size", 2, "Width in terminal cells of each pixel")
	channel    = flag.Int("opc-channel", 0, "OPC channel drawn, messages on channel 0 are always drawn")
	logFile    = flag.String("log", "", "File receiving log output, logging is discarded when empty")
	verbose    = flag.Bool("v", false, "When enabled will print internal logging for this tool")
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: ", os.Args[0], "[options]       OPC → terminal (simulator)      ", version.GitHash, "    ", version.BuildTime)
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "simulator draws Open Pixel Control frames as blocks of colour on the terminal")
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
	if errGo := config.Load(flag.CommandLine, os.Args[1:]); errGo != nil {
		fmt.Fprintln(os.Stderr, errGo.Error())
		os.Exit(-1)
	}

	var logger logxi.Logger = logxi.NullLog
	if *logFile != "" {
		f, errGo := os.OpenFile(*logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if errGo != nil {
			fmt.Fprintln(os.Stderr, errGo.Error())
			os.Exit(-1)
		}
		defer f.Close()
		logger = logxi.NewLogger(logxi.NewConcurrentWriter(f), "simulator")
		if *verbose {
			logger.SetLevel(logxi.LevelDebug)
		}
	}

	listener, errGo := net.Listen("tcp", *listen)
	if errGo != nil {
		fmt.Fprintln(os.Stderr, errGo.Error())
		os.Exit(-1)
	}

	strip, err := simulator.NewTerminalStrip(*pixelCount, *ledSize, "OPC "+*listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}

	quitC := make(chan struct{})
	errorC := make(chan error, 1)

	sigC := make(chan os.Signal, 1)
	signal.Notify(sigC, os.Interrupt, syscall.SIGTERM)

	server := simulator.NewServer(strip, uint8(*channel), logger)
	go server.Serve(listener, errorC, quitC)

	strip.Show()

	select {
	case <-strip.Watch():
	case <-sigC:
	case err = <-errorC:
	}
	close(quitC)
	strip.Close()

	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(-1)
	}
	logger.Info("frames shown", "count", server.Frames())
}
