package main

import (
	"fmt"
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ilweave",
	Short: "Weave, inspect and run stack-machine method bodies",
	Long: `ilweave builds method bodies with structured control flow and
exception handlers, then disassembles, serializes or executes them.

The built-in "samples" module contains methods woven with the builder.
Method images written by "ilweave dump" can be loaded with --image.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		processGlobalFlags()
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.ilweave.yaml)")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().String("image", "", "Load a method image into the samples module")
	viper.BindPFlag("no-color", rootCmd.PersistentFlags().Lookup("no-color"))
	viper.BindPFlag("log-level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("image", rootCmd.PersistentFlags().Lookup("image"))

	rootCmd.AddCommand(listCmd, disCmd, runCmd, dumpCmd)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fatal(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".ilweave")
	}

	viper.SetEnvPrefix("ilweave")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		log := logger()
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	} else if cfgFile != "" {
		fatal(fmt.Errorf("reading config: %w", err))
	}
}

// logger returns a console logger at the configured level.
func logger() zerolog.Logger {
	level, err := zerolog.ParseLevel(viper.GetString("log-level"))
	if err != nil || viper.GetString("log-level") == "" {
		level = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:     os.Stderr,
		NoColor: viper.GetBool("no-color"),
	}).Level(level).With().Timestamp().Logger()
}

// traceLogger returns the console logger used by run --trace. Its level is
// at most debug.
func traceLogger() zerolog.Logger {
	log := logger()
	if log.GetLevel() > zerolog.DebugLevel {
		log = log.Level(zerolog.DebugLevel)
	}
	return log
}
