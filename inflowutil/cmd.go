/*
Copyright © 2017 the Inflow authors.
This file is part of Inflow.

Inflow is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

Inflow is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with Inflow.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package inflowutil holds the command-line interface and the
// configuration handling of the inflow generator.
package inflowutil

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/inflow"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Cfg holds configuration information.
var Cfg *viper.Viper

// Log receives the status messages of all commands.
var Log = logrus.New()

var options []struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

func init() {
	// Options are the configuration options that can also be set from the
	// command line. The remaining configuration variables are only read
	// from the configuration file or the environment.
	options = []struct {
		name, usage, shorthand string
		defaultVal             interface{}
		flagsets               []*pflag.FlagSet
	}{
		{
			name: "config",
			usage: `
              config specifies the configuration file location. The file
              holds one 'key value' pair per line; lines starting with '#'
              are comments.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "logLevel",
			usage: `
              logLevel specifies the minimum level of the messages that
              are printed: debug, info, warning or error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{Root.PersistentFlags()},
		},
		{
			name: "nProcs",
			usage: `
              nProcs specifies the number of concurrent workers. Time-steps
              are divided evenly among them.`,
			shorthand:  "n",
			defaultVal: runtime.GOMAXPROCS(0),
			flagsets:   []*pflag.FlagSet{convertCmd.Flags(), rescaleCmd.Flags()},
		},
		{
			name: "precursorPath",
			usage: `
              precursorPath specifies the location of the OpenFOAM case
              holding the precursor database in
              postProcessing/sampledSurface.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "surfaceName",
			usage: `
              surfaceName specifies the name of the sampled surface.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "fileName",
			usage: `
              fileName specifies the location of the HDF5 file to be
              created. An existing file is overwritten.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "uMeanFile",
			usage: `
              uMeanFile specifies the location of the mean velocity
              profile: two or three columns holding the wall-normal
              coordinate, the mean streamwise velocity and optionally the
              mean wall-normal velocity.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{convertCmd.Flags()},
		},
		{
			name: "xOrigin",
			usage: `
              xOrigin specifies the streamwise position of the inflow
              plane.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "yOrigin",
			usage: `
              yOrigin specifies the wall-normal position of the wall on
              the inflow plane.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "precursorOuterLength",
			usage: `
              precursorOuterLength specifies the length that scales the
              precursor wall-normal coordinate to the outer coordinate.
              0 uses the 99% thickness of the precursor mean profile and
              1 uses the precursor coordinate as it is.`,
			defaultVal: 0.0,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "tPrecision",
			usage: `
              tPrecision specifies the number of decimals in the names of
              the output time-steps.`,
			defaultVal: 6,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "blendAlpha",
			usage: `
              blendAlpha specifies the steepness of the weight that blends
              inner and outer scaling.`,
			defaultVal: inflow.DefaultBlend.Alpha,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "blendB",
			usage: `
              blendB specifies the offset of the blending weight, between
              0 and 0.5.`,
			defaultVal: inflow.DefaultBlend.B,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "etaInner",
			usage: `
              etaInner specifies the outer coordinate y/delta99 below which
              only inner scaling is used.`,
			defaultVal: inflow.DefaultBlend.EtaInner,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "etaOuter",
			usage: `
              etaOuter specifies the outer coordinate y/delta99 above which
              only outer scaling is used.`,
			defaultVal: inflow.DefaultBlend.EtaOuter,
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "parametersFile",
			usage: `
              parametersFile, if specified, is the location where a TOML
              summary of the computed boundary-layer parameters is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
		{
			name: "profilePlot",
			usage: `
              profilePlot, if specified, is the location where a PNG plot
              comparing the precursor and the rescaled mean velocity
              profiles is written.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{rescaleCmd.Flags()},
		},
	}

	Cfg = viper.New()

	// Set the prefix for configuration environment variables.
	Cfg.SetEnvPrefix("INFLOW")
	Cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch v := option.defaultVal.(type) {
			case string:
				set.StringP(option.name, option.shorthand, v, option.usage)
			case int:
				set.IntP(option.name, option.shorthand, v, option.usage)
			case float64:
				set.Float64P(option.name, option.shorthand, v, option.usage)
			default:
				panic("invalid argument type")
			}
			Cfg.BindPFlag(option.name, set.Lookup(option.name))
		}
	}
}

func init() {
	// Link the commands together.
	Root.AddCommand(versionCmd)
	Root.AddCommand(convertCmd)
	Root.AddCommand(rescaleCmd)
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets the log level.
func setConfig() error {
	if cfgpath := Cfg.GetString("config"); cfgpath != "" {
		cfgpath = os.ExpandEnv(cfgpath)
		Cfg.SetConfigFile(cfgpath)
		Cfg.SetConfigType("properties")
		if err := Cfg.ReadInConfig(); err != nil {
			return &inflow.ConfigurationError{Key: "config", Value: cfgpath, Msg: fmt.Sprintf("could not be read: %v", err)}
		}
	}
	level, err := logrus.ParseLevel(strings.ToLower(Cfg.GetString("logLevel")))
	if err != nil {
		return &inflow.ConfigurationError{Key: "logLevel", Value: Cfg.GetString("logLevel"), Msg: err.Error()}
	}
	Log.SetLevel(level)
	return nil
}

// Root is the main command.
var Root = &cobra.Command{
	Use:   "inflow",
	Short: "Turbulent inflow generation by rescaling a precursor simulation.",
	Long: `inflow generates turbulent inflow boundary conditions for a simulation
by rescaling the velocity field sampled in a precursor boundary-layer
simulation with the method of Lund, Wu and Squires (1998).
Use the subcommands specified below to access the functionality.

Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'INFLOW_var' where 'var' is the
name of the variable to be set.
Refer to https://github.com/spf13/viper for additional configuration information.`,
	DisableAutoGenTag: true,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: func(*cobra.Command, []string) error { return setConfig() },
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long:  "version prints the version number of this version of inflow.",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("inflow v%s\n", inflow.Version)
	},
	DisableAutoGenTag: true,
}

// convertCmd converts a foamFile precursor database to HDF5.
var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a foamFile precursor database to HDF5.",
	Long: `convert reads a precursor database stored as an OpenFOAM sampled surface
in the foamFile format, together with its mean velocity profile, and stores it
in a single HDF5 file that can be read with 'reader hdf5'. The grid is padded
with a row at the wall and a row at the top of the mean profile.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return Convert(context.Background(),
			os.ExpandEnv(Cfg.GetString("precursorPath")),
			Cfg.GetString("surfaceName"),
			os.ExpandEnv(Cfg.GetString("fileName")),
			os.ExpandEnv(Cfg.GetString("uMeanFile")),
			Cfg.GetInt("nProcs"), Log)
	},
	DisableAutoGenTag: true,
}

// rescaleCmd generates an inflow database.
var rescaleCmd = &cobra.Command{
	Use:   "rescale",
	Short: "Generate inflow boundary data by Lund rescaling.",
	Long: `rescale generates inflow boundary data for the time-steps t0, t0+dt, ..., tEnd
by rescaling the snapshots of a precursor database, cycling through them if there
are fewer precursor snapshots than output time-steps. All configuration variables
are read from the file given with --config.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := RescaleConfigFromViper(Cfg)
		if err != nil {
			return err
		}
		return Rescale(context.Background(), c, Log)
	},
	DisableAutoGenTag: true,
}
