// Package config holds the settings shared by the ledserver commands along
// with the flag and environment handling used to populate them
package config

import (
	"flag"
	"fmt"
	"math"
	"net"
	"strconv"
	"strings"

	logxi "github.com/mgutz/logxi/v1"
	"github.com/pkg/errors"
)

// Config is read once at start up and never modified afterwards
type Config struct {
	FramesPerSecond float64
	PixelCount      int
	Brightness      float64
	Host            string
	Port            int
	LedSize         int
	Sinks           string
	FadeCandy       string
	OPCChannel      int
	Scene           string
	NoiseSeed       int64
	Verbose         bool
}

// Register binds the server settings to flags on fs, with their defaults
func Register(fs *flag.FlagSet) (cfg *Config) {
	cfg = &Config{}
	fs.Float64Var(&cfg.FramesPerSecond, "frames-per-second", 25, "Frames rendered per second")
	fs.IntVar(&cfg.PixelCount, "pixel-count", 50, "Number of pixels on the strip")
	fs.Float64Var(&cfg.Brightness, "brightness", 0.1, "Brightness within [0, 1] applied by the output sinks")
	fs.StringVar(&cfg.Host, "host", "127.0.0.1", "Host the control surface binds to")
	fs.IntVar(&cfg.Port, "port", 5000, "Port the control surface binds to")
	fs.IntVar(&cfg.LedSize, "led-size", 2, "Width in terminal cells of each pixel drawn by the term sink")
	fs.StringVar(&cfg.Sinks, "sink", "mock", "Comma separated output sinks, any of mock, fadecandy and term")
	fs.StringVar(&cfg.FadeCandy, "fadecandy", "127.0.0.1:7890", "Address of the fadecandy OPC server")
	fs.IntVar(&cfg.OPCChannel, "opc-channel", 0, "OPC channel the strip is attached to")
	fs.StringVar(&cfg.Scene, "scene", "", "YAML scene applied before rendering starts")
	fs.Int64Var(&cfg.NoiseSeed, "noise-seed", 0, "Seed for the noise modifier")
	fs.BoolVar(&cfg.Verbose, "v", false, "When enabled will print internal logging for this tool")
	return cfg
}

var knownSinks = map[string]bool{"mock": true, "fadecandy": true, "term": true}

// SinkNames returns the configured sinks, lower cased with duplicates removed
func (cfg *Config) SinkNames() (names []string) {
	seen := map[string]bool{}
	for _, name := range strings.Split(cfg.Sinks, ",") {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// Address is the host:port of the control surface
func (cfg *Config) Address() string {
	return net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
}

// Validate rejects settings the render loop cannot run with
func (cfg *Config) Validate() (err error) {
	if cfg.FramesPerSecond <= 0 || math.IsNaN(cfg.FramesPerSecond) || math.IsInf(cfg.FramesPerSecond, 0) {
		return errors.Errorf("frames-per-second %v must be greater than 0", cfg.FramesPerSecond)
	}
	if cfg.PixelCount <= 0 {
		return errors.Errorf("pixel-count %d must be greater than 0", cfg.PixelCount)
	}
	if cfg.Brightness < 0 || cfg.Brightness > 1 || math.IsNaN(cfg.Brightness) {
		return errors.Errorf("brightness %v not within [0, 1]", cfg.Brightness)
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return errors.Errorf("port %d out of range", cfg.Port)
	}
	if cfg.OPCChannel < 0 || cfg.OPCChannel > 255 {
		return errors.Errorf("opc-channel %d not within [0, 255]", cfg.OPCChannel)
	}
	names := cfg.SinkNames()
	if len(names) == 0 {
		return errors.New("at least one sink is required")
	}
	for _, name := range names {
		if !knownSinks[name] {
			return errors.Errorf("unknown sink %q", name)
		}
	}
	return nil
}

// Log writes each setting at info
func (cfg *Config) Log(logger logxi.Logger) {
	logger.Info("BRIGHTNESS", "value", cfg.Brightness)
	logger.Info("FRAMES_PER_SECOND", "value", cfg.FramesPerSecond)
	logger.Info("HOST", "value", cfg.Host)
	logger.Info("LED_SIZE", "value", cfg.LedSize)
	logger.Info("PIXEL_COUNT", "value", cfg.PixelCount)
	logger.Info("PORT", "value", cfg.Port)
	logger.Info("SINK", "value", fmt.Sprint(cfg.SinkNames()))
}
