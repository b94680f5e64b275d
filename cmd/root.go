/*
Copyright © 2024 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"reflect"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/fixd/common"
	"github.com/rotblauer/fixd/params"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "fixd",
	Short: "Smooth noisy location fixes",
	Long: `fixd turns a stream of raw location fixes into a stable, smoothed position and heading.

Jitter while standing still is suppressed, movement is followed without overshoot,
and the heading is frozen at rest and smoothed across north.

Configuration is read from $HOME/.fixd.yaml (or --config), and FIXD_ prefixed
environment variables (eg. FIXD_FILTER_MOVEMENT_THRESHOLD). Filter parameters
live under the "filter" key, eg.

  filter:
    movement_threshold: 2.5
    required_stable_count: 4

The "session", "clean", "influx", "web" and "mqtt" keys configure the
daemons and exporters; flags override them.
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Accept --log_level as well as --log-level, matching the config file keys.
	rootCmd.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.fixd.yaml)")
	pFlags.String("log-level", "info", "Log level (debug, info, warn, error)")
	pFlags.String("log-format", "text", "Log format (text, json)")
	_ = viper.BindPFlag("log-level", pFlags.Lookup("log-level"))
	_ = viper.BindPFlag("log-format", pFlags.Lookup("log-format"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln(err)
		}
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".fixd")
	}

	viper.SetEnvPrefix("FIXD")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	// UnmarshalKey only sees env vars of keys viper already knows.
	bindEnvs("filter", params.LocationFilterConfig{})
	bindEnvs("session", params.SessionConfig{})
	bindEnvs("clean", params.TrackCleaningConfig{})
	bindEnvs("influx", params.InfluxExportConfig{})
	bindEnvs("mqtt", params.MQTTDaemonConfig{})

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaultSlog installs the default logger, writing to stderr
// so that stdout stays clean for fixes.
func setDefaultSlog(cmd *cobra.Command, args []string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	switch viper.GetString("log-format") {
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler).With("cmd", cmd.Name()))
}

// filterConfig returns the default filter parameters, overridden by the
// "filter" section of the config.
func filterConfig() (*params.LocationFilterConfig, error) {
	c := params.DefaultLocationFilterConfig()
	if err := viper.UnmarshalKey("filter", c); err != nil {
		return nil, fmt.Errorf("read filter config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func sessionConfig() (*params.SessionConfig, error) {
	filter, err := filterConfig()
	if err != nil {
		return nil, err
	}
	c := params.DefaultSessionConfig()
	if err := viper.UnmarshalKey("session", c); err != nil {
		return nil, fmt.Errorf("read session config: %w", err)
	}
	c.Filter = filter
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// influxConfig reads the INFLUXDB_* environment, overridden by the "influx" section of the config.
func influxConfig() (*params.InfluxExportConfig, error) {
	c := params.DefaultInfluxExportConfig()
	if err := viper.UnmarshalKey("influx", c); err != nil {
		return nil, fmt.Errorf("read influx config: %w", err)
	}
	return c, nil
}

// bindEnvs binds FIXD_<SECTION>_<KEY> for every mapstructure key of a config struct.
func bindEnvs(section string, config any) {
	t := reflect.TypeOf(config)
	for i := 0; i < t.NumField(); i++ {
		tag, _, _ := strings.Cut(t.Field(i).Tag.Get("mapstructure"), ",")
		if tag == "" || tag == "-" {
			continue
		}
		key := section + "." + tag
		if err := viper.BindEnv(key, "FIXD_"+strings.ToUpper(strings.ReplaceAll(key, ".", "_"))); err != nil {
			panic(err)
		}
	}
}

// bindFlag lets a config key, eg. "web.address", be set by the named flag.
func bindFlag(key string, flags *pflag.FlagSet, name string) {
	if err := viper.BindPFlag(key, flags.Lookup(name)); err != nil {
		panic(err)
	}
}

// interruptContext is canceled on the first interrupt.
// A second interrupt exits immediately.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	interrupt := common.Interrupted()
	go func() {
		for i := 0; i < 2; i++ {
			select {
			case sig := <-interrupt:
				slog.Warn("Received signal", "signal", sig, "i", i)
				if i == 0 {
					cancel()
				} else {
					log.Fatalln("Force exit")
				}
			}
		}
	}()
	return ctx, cancel
}
