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
	"fmt"
	"github.com/mitchellh/go-homedir"
	"github.com/rotblauer/ortomap/common"
	"github.com/rotblauer/ortomap/geomap"
	"github.com/rotblauer/ortomap/params"
	"github.com/rotblauer/ortomap/proj"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

var cfgFile string

var logCloser io.Closer

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ortomap",
	Short: "Maps with WMTS orthophoto overlays",
	Long: `ortomap serves OpenLayers maps whose overlays are described by
WMTS GetCapabilities documents, eg. the Polish geoportal orthophotomap.

Maps, their projections and static layers are read from a YAML table
(--maps), defaulting to a built-in table.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
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

	defaults := params.DefaultAppConfig()

	pFlags := rootCmd.PersistentFlags()
	pFlags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/"+params.ConfigName+".yaml)")
	pFlags.String("maps", "", "YAML maps table (default is the built-in table)")
	pFlags.String("log.level", defaults.Log.Level.String(), "log level: debug, info, warn, error")
	pFlags.String("log.format", defaults.Log.Format, "log format: text or json")
	pFlags.String("log.file", "", "log to this file, rotated, instead of stderr")
	pFlags.Duration("fetch.timeout", defaults.Fetch.Timeout, "capabilities request timeout")
	pFlags.String("fetch.user-agent", defaults.Fetch.UserAgent, "capabilities request User-Agent")
	pFlags.String("influx.url", defaults.Influx.URL, "InfluxDB URL for attach results (default $INFLUXDB_URL)")
	pFlags.String("influx.token", defaults.Influx.Token, "InfluxDB token (default $INFLUXDB_TOKEN)")
	pFlags.String("influx.org", defaults.Influx.Org, "InfluxDB organization (default $INFLUXDB_ORG)")
	pFlags.String("influx.bucket", defaults.Influx.Bucket, "InfluxDB bucket (default $INFLUXDB_BUCKET)")

	bindFlags(pFlags)
}

// bindFlags makes flags readable through viper under their own names.
func bindFlags(flags *pflag.FlagSet) {
	if err := viper.BindPFlags(flags); err != nil {
		log.Fatalln(err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".ortomap" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(params.ConfigName)
	}

	viper.SetEnvPrefix(params.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// appConfig assembles the application config from flags, env and config file.
func appConfig() *params.AppConfig {
	c := params.DefaultAppConfig()
	c.MapsFile = viper.GetString("maps")

	if err := c.Log.Level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		log.Fatalln(err)
	}
	c.Log.Format = viper.GetString("log.format")
	c.Log.File = viper.GetString("log.file")

	c.Fetch.Timeout = viper.GetDuration("fetch.timeout")
	c.Fetch.UserAgent = viper.GetString("fetch.user-agent")

	c.Influx.URL = viper.GetString("influx.url")
	c.Influx.Token = viper.GetString("influx.token")
	c.Influx.Org = viper.GetString("influx.org")
	c.Influx.Bucket = viper.GetString("influx.bucket")
	return c
}

func setDefaultSlog(cmd *cobra.Command, args []string) *params.AppConfig {
	c := appConfig()
	closer, err := common.SetupSlog(common.SlogOptions{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	})
	if err != nil {
		log.Fatalln(err)
	}
	logCloser = closer
	slog.Debug("Configured", "command", cmd.Name(), "args", args)
	return c
}

// loadAtlas builds the atlas from the configured maps table.
// Grid warnings are logged; build errors are fatal.
func loadAtlas(c *params.AppConfig) (*geomap.Atlas, *params.MapsConfig) {
	mapsConfig, err := params.LoadMapsConfig(c.MapsFile)
	if err != nil {
		log.Fatalln(err)
	}
	atlas, errs := geomap.Build(mapsConfig, proj.Default)
	if atlas == nil {
		for _, err := range errs {
			slog.Error("Invalid map", "error", err)
		}
		log.Fatalln("no maps built")
	}
	for _, err := range errs {
		slog.Warn("Map table", "warning", err)
	}
	for target, names := range atlas.DuplicateTargets() {
		slog.Warn("Maps share a render target", "target", target, "maps", names)
	}
	return atlas, mapsConfig
}
