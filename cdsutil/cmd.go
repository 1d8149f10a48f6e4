/*
Copyright © 2023 the cdsfetch authors.
This file is part of cdsfetch.

cdsfetch is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

cdsfetch is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with cdsfetch.  If not, see <http://www.gnu.org/licenses/>.
*/

// Package cdsutil contains the command-line interface for cdsfetch.
package cdsutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/lnashier/viper"
	"github.com/sirupsen/logrus"
	"github.com/spatialmodel/cdsfetch"
	"github.com/spatialmodel/cdsfetch/cloud"
	"github.com/spatialmodel/cdsfetch/dataset"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Cfg holds configuration information.
type Cfg struct {
	*viper.Viper

	// Root is the main command.
	Root *cobra.Command

	versionCmd, splitCmd, datesCmd, fetchCmd *cobra.Command

	// Log receives progress messages.
	Log *logrus.Logger

	// now returns the current time, which determines the default stop
	// month.
	now func() time.Time
}

type option struct {
	name, usage, shorthand string
	defaultVal             interface{}
	flagsets               []*pflag.FlagSet
}

// InitializeConfig returns a new configuration with its commands and
// options set up.
func InitializeConfig() *Cfg {
	cfg := &Cfg{
		Viper: viper.New(),
		Log:   logrus.New(),
		now:   time.Now,
	}
	cfg.Log.Formatter = &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339Nano,
		DisableSorting:  true,
	}

	cfg.Root = &cobra.Command{
		Use:   "cdsfetch",
		Short: "Retrieve climate data in chunks.",
		Long: `cdsfetch splits requests for climate reanalysis data into chunks that a
remote data store will accept, retrieves each chunk once, and combines the
results. Use the subcommands specified below to access the functionality.

Refer to the subcommand documentation for configuration options and default settings.
Configuration can be changed by using a configuration file (and providing the
path to the file using the --config flag), by using command-line arguments,
or by setting environment variables in the format 'CDSFETCH_var' where 'var' is the
name of the variable to be set, with any '.' replaced by '_'.
Refer to https://github.com/spf13/viper for additional configuration information.`,
		DisableAutoGenTag: true,
		PersistentPreRunE: func(*cobra.Command, []string) error { return cfg.setConfig() },
	}

	cfg.versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Long:  "version prints the version number of this version of cdsfetch.",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("cdsfetch v%s\n", cdsfetch.Version)
		},
		DisableAutoGenTag: true,
	}

	cfg.splitCmd = &cobra.Command{
		Use:   "split",
		Short: "Split a request into chunks",
		Long: `split splits the request specified by the 'request' configuration variable
according to the 'chunks' configuration variable and prints the resulting
requests, one JSON object per line. Chunks that select no valid calendar
dates are left out.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			r, err := loadRequest(ctx, cfg.GetString("request"))
			if err != nil {
				return err
			}
			return cfg.printChunks(cmd.OutOrStdout(), cdsfetch.Single{Request: r})
		},
		DisableAutoGenTag: true,
	}

	cfg.datesCmd = &cobra.Command{
		Use:   "dates",
		Short: "Split a request by date",
		Long: `dates replaces the year, month and day parameters of the request specified
by the 'request' configuration variable with the months from 'start' to 'stop',
using as few requests as possible, then splits the result according to the
'chunks' configuration variable and prints the resulting requests, one JSON
object per line. If 'stop' is not set, it is the most recent month for which
data is expected to be available, as determined by 'switch_day'.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.GetString("start") == "" {
				return fmt.Errorf("cdsutil: the 'start' configuration variable must be set")
			}
			rs, err := requests(context.Background(), cfg.Viper, cfg.now())
			if err != nil {
				return err
			}
			return cfg.printChunks(cmd.OutOrStdout(), rs)
		},
		DisableAutoGenTag: true,
	}

	cfg.fetchCmd = &cobra.Command{
		Use:   "fetch",
		Short: "Retrieve and combine a request",
		Long: `fetch retrieves the request specified by the 'request' configuration variable
from the collection specified by 'collection', after splitting it by date
(if 'start' is set) and into chunks. Chunks are read from the mirror bucket
specified by 'mirror' and are cached according to the 'cache' options.
The chunks are opened as specified by 'open_as', combined, and written to
'output', or to standard output if 'output' is not set.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			d, err := cfg.fetch(ctx)
			if err != nil {
				return err
			}
			return writeOutput(ctx, cmd.OutOrStdout(), cfg.GetString("output"), d)
		},
		DisableAutoGenTag: true,
	}

	// Options are the configuration options available to cdsfetch.
	options := []option{
		{
			name: "config",
			usage: `
              config specifies the configuration file location.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "log_level",
			usage: `
              log_level specifies the minimum level of log messages
              to print. Valid options are debug, info, warning, and error.`,
			defaultVal: "info",
			flagsets:   []*pflag.FlagSet{cfg.Root.PersistentFlags()},
		},
		{
			name: "request",
			usage: `
              request is the request to retrieve, either as a JSON object or
              as the path to a .json, .toml, or .yaml file. The path can be
              a blob storage location and can include environment variables.`,
			shorthand:  "r",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.splitCmd.Flags(), cfg.datesCmd.Flags(), cfg.fetchCmd.Flags()},
		},
		{
			name: "chunks",
			usage: `
              chunks specifies how to split the request, in the format
              'param=size,param=size' or as a JSON object. Each listed
              parameter is split into groups of at most 'size' values,
              and a request is made for each combination of groups.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.splitCmd.Flags(), cfg.datesCmd.Flags(), cfg.fetchCmd.Flags()},
		},
		{
			name: "batch",
			usage: `
              batch, if greater than zero, groups the printed requests into
              batches of at most this many, printed as one JSON array per line.`,
			defaultVal: 0,
			flagsets:   []*pflag.FlagSet{cfg.splitCmd.Flags(), cfg.datesCmd.Flags()},
		},
		{
			name: "start",
			usage: `
              start is the first month to retrieve, in the format YYYY-MM.
              If it is empty, the dates in the request are used as they are.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.datesCmd.Flags(), cfg.fetchCmd.Flags()},
		},
		{
			name: "stop",
			usage: `
              stop is the last month to retrieve, in the format YYYY-MM.
              If it is empty, it is the most recent month with available data.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.datesCmd.Flags(), cfg.fetchCmd.Flags()},
		},
		{
			name: "switch_day",
			usage: `
              switch_day is the day of the month on or after which data for
              the previous month is expected to be available. It is only used
              when stop is empty.`,
			defaultVal: cdsfetch.DefaultSwitchDay,
			flagsets:   []*pflag.FlagSet{cfg.datesCmd.Flags(), cfg.fetchCmd.Flags()},
		},
		{
			name: "collection",
			usage: `
              collection is the name of the collection to retrieve data from,
              for example 'reanalysis-era5-single-levels'.`,
			shorthand:  "c",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "open_as",
			usage: `
              open_as specifies how retrieved data is opened and combined.
              'table' data is combined by stacking rows, and 'dataset' data
              is combined by aligning coordinates.`,
			defaultVal: string(cdsfetch.OpenTable),
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "select",
			usage: `
              select lists the table columns or dataset variables to keep from
              each chunk. If it is empty, everything is kept.`,
			defaultVal: []string{},
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "merge",
			usage: `
              merge holds options for combining chunks. 'join' can be 'outer'
              or 'inner', and for datasets 'compat' can be 'no_conflicts' or
              'override'.`,
			defaultVal: map[string]string{},
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "mirror",
			usage: `
              mirror is the blob storage location holding the retrieved data,
              in the format 'provider://bucket/prefix'. Valid providers are
              gs, s3, file, and mem.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "retries",
			usage: `
              retries is the number of times a failed read from the mirror is
              retried before giving up.`,
			defaultVal: 3,
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "cache.dir",
			usage: `
              cache.dir is the directory where retrieved chunks are cached
              between runs. If it is empty, chunks are only cached in memory.
              It can include environment variables.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "cache.tag",
			usage: `
              cache.tag separates cached chunks: chunks cached under one tag
              are not used under another.`,
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "cache.entries",
			usage: `
              cache.entries is the number of chunks to hold in memory.`,
			defaultVal: 100,
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
		{
			name: "output",
			usage: `
              output is the path where the combined result is written. Paths
              ending in .nc or .ncf are written in NetCDF format and others in
              JSON format. The path can be a blob storage location and can
              include environment variables.`,
			shorthand:  "o",
			defaultVal: "",
			flagsets:   []*pflag.FlagSet{cfg.fetchCmd.Flags()},
		},
	}

	// Set the prefix for configuration environment variables.
	cfg.SetEnvPrefix("CDSFETCH")
	cfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	cfg.AutomaticEnv()

	for _, option := range options {
		for i, set := range option.flagsets {
			if i != 0 { // We don't want to create the same flag twice.
				set.AddFlag(option.flagsets[0].Lookup(option.name))
				continue
			}
			switch option.defaultVal.(type) {
			case string:
				if option.shorthand == "" {
					set.String(option.name, option.defaultVal.(string), option.usage)
				} else {
					set.StringP(option.name, option.shorthand, option.defaultVal.(string), option.usage)
				}
			case []string:
				if option.shorthand == "" {
					set.StringSlice(option.name, option.defaultVal.([]string), option.usage)
				} else {
					set.StringSliceP(option.name, option.shorthand, option.defaultVal.([]string), option.usage)
				}
			case int:
				if option.shorthand == "" {
					set.Int(option.name, option.defaultVal.(int), option.usage)
				} else {
					set.IntP(option.name, option.shorthand, option.defaultVal.(int), option.usage)
				}
			case map[string]string:
				b := bytes.NewBuffer(nil)
				e := json.NewEncoder(b)
				e.Encode(option.defaultVal)
				s := strings.TrimSpace(b.String())
				if option.shorthand == "" {
					set.String(option.name, s, option.usage)
				} else {
					set.StringP(option.name, option.shorthand, s, option.usage)
				}
			default:
				panic("invalid argument type")
			}
		}
		cfg.BindPFlag(option.name, option.flagsets[0].Lookup(option.name))
	}

	// Link the commands together.
	cfg.Root.AddCommand(cfg.versionCmd)
	cfg.Root.AddCommand(cfg.splitCmd)
	cfg.Root.AddCommand(cfg.datesCmd)
	cfg.Root.AddCommand(cfg.fetchCmd)
	return cfg
}

// setConfig finds and reads in the configuration file, if there is one,
// and sets up logging.
func (cfg *Cfg) setConfig() error {
	if cfgpath := cfg.GetString("config"); cfgpath != "" {
		cfg.SetConfigFile(os.ExpandEnv(cfgpath))
		if err := cfg.ReadInConfig(); err != nil {
			return fmt.Errorf("cdsfetch: problem reading configuration file: %v", err)
		}
	}
	lvl, err := logrus.ParseLevel(cfg.GetString("log_level"))
	if err != nil {
		return fmt.Errorf("cdsfetch: invalid log_level: %v", err)
	}
	cfg.Log.Level = lvl
	return nil
}

// printChunks splits each of the given requests according to the
// 'chunks' configuration variable and writes the results to w, one
// per line, or one batch per line if 'batch' is set.
func (cfg *Cfg) printChunks(w io.Writer, rs cdsfetch.RequestSet) error {
	cs, err := parseChunkSpec(cfg.Get("chunks"))
	if err != nil {
		return err
	}
	var all []cdsfetch.Request
	for _, r := range rs.Requests() {
		split, err := cdsfetch.SplitRequest(r, cs)
		if err != nil {
			return err
		}
		all = append(all, split...)
	}
	if n := cfg.GetInt("batch"); n > 0 {
		batches, err := cdsfetch.Batched(all, n)
		if err != nil {
			return err
		}
		for _, b := range batches {
			line, err := json.Marshal(b)
			if err != nil {
				return err
			}
			if _, err := fmt.Fprintf(w, "%s\n", line); err != nil {
				return err
			}
		}
		return nil
	}
	for _, s := range all {
		if _, err := fmt.Fprintln(w, s.String()); err != nil {
			return err
		}
	}
	return nil
}

// Fetcher returns a Fetcher that reads from the configured mirror.
func (cfg *Cfg) Fetcher(ctx context.Context) (*cdsfetch.Fetcher, error) {
	mirror := os.ExpandEnv(cfg.GetString("mirror"))
	if mirror == "" {
		return nil, fmt.Errorf("cdsutil: the 'mirror' configuration variable must be set")
	}
	r, err := cloud.NewBucketRetriever(ctx, mirror, cfg.GetInt("retries"))
	if err != nil {
		return nil, err
	}
	r.Log = cfg.Log
	f := cdsfetch.NewFetcher(r, dataset.JSONOpener{}, dataset.Combiner{})
	f.Log = cfg.Log
	f.Tag = cfg.GetString("cache.tag")
	f.CacheDir = os.ExpandEnv(cfg.GetString("cache.dir"))
	f.CacheSize = cfg.GetInt("cache.entries")
	return f, nil
}

// fetchOptions returns the configured options for
// Fetcher.DownloadAndTransform.
func (cfg *Cfg) fetchOptions() (cdsfetch.FetchOptions, error) {
	var opts cdsfetch.FetchOptions
	var err error
	if opts.Chunks, err = parseChunkSpec(cfg.Get("chunks")); err != nil {
		return opts, err
	}
	if opts.OpenAs, err = cdsfetch.ParseOpenMode(cfg.GetString("open_as")); err != nil {
		return opts, err
	}
	if sel := cfg.GetStringSlice("select"); len(sel) > 0 {
		opts.Transform = dataset.Select(sel...)
	}
	merge, err := GetStringMapString("merge", cfg.Viper)
	if err != nil {
		return opts, err
	}
	if len(merge) > 0 {
		opts.Merge = make(cdsfetch.MergeOptions, len(merge))
		for k, v := range merge {
			opts.Merge[k] = v
		}
	}
	return opts, nil
}

// fetch retrieves and combines the configured request.
func (cfg *Cfg) fetch(ctx context.Context) (cdsfetch.Dataset, error) {
	collection := cfg.GetString("collection")
	if collection == "" {
		return nil, fmt.Errorf("cdsutil: the 'collection' configuration variable must be set")
	}
	opts, err := cfg.fetchOptions()
	if err != nil {
		return nil, err
	}
	rs, err := requests(ctx, cfg.Viper, cfg.now())
	if err != nil {
		return nil, err
	}
	f, err := cfg.Fetcher(ctx)
	if err != nil {
		return nil, err
	}
	return f.DownloadAndTransform(ctx, collection, rs, opts)
}
