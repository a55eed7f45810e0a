package config

// This file contains flag parsing with environment overrides.  Any flag not
// given on the command line takes its value from the environment variable
// named by upper casing the flag and changing dashes to underscores, for
// example -pixel-count is read from PIXEL_COUNT

import (
	"flag"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// EnvName returns the environment variable consulted for a flag
func EnvName(flagName string) string {
	return strings.ToUpper(strings.ReplaceAll(flagName, "-", "_"))
}

// Parse parses args into fs and then fills any flag left unset from the
// environment.  Command line values always win
func Parse(fs *flag.FlagSet, args []string) (err error) {
	if errGo := fs.Parse(args); errGo != nil {
		return errGo
	}

	given := map[string]bool{}
	fs.Visit(func(f *flag.Flag) {
		given[f.Name] = true
	})

	fs.VisitAll(func(f *flag.Flag) {
		if err != nil || given[f.Name] {
			return
		}
		value, isPresent := os.LookupEnv(EnvName(f.Name))
		if !isPresent {
			return
		}
		if errGo := fs.Set(f.Name, value); errGo != nil {
			err = errors.Wrapf(errGo, "environment variable %s", EnvName(f.Name))
		}
	})
	return err
}

// LoadDotEnv reads the named files, or .env when none are named, into the
// environment without replacing variables that are already set.  Missing
// files are not an error
func LoadDotEnv(filenames ...string) (err error) {
	if len(filenames) == 0 {
		filenames = []string{".env"}
	}
	for _, fn := range filenames {
		if _, errGo := os.Stat(fn); os.IsNotExist(errGo) {
			continue
		}
		if errGo := godotenv.Load(fn); errGo != nil {
			return errors.Wrapf(errGo, "env file %s", fn)
		}
	}
	return nil
}

// Load reads the env files into the environment and then parses args into fs,
// this is the startup sequence shared by every command
func Load(fs *flag.FlagSet, args []string, envFiles ...string) (err error) {
	if err = LoadDotEnv(envFiles...); err != nil {
		return err
	}
	return Parse(fs, args)
}
