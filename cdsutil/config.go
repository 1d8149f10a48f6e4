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

package cdsutil

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lnashier/viper"
	"github.com/spatialmodel/cdsfetch"
	"github.com/spatialmodel/cdsfetch/cloud"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v3"
)

// loadRequest reads a request. spec is either an inline JSON object or
// the path to a local or blob file in JSON, TOML or YAML format, as
// determined by its extension. The path can include environment
// variables.
func loadRequest(ctx context.Context, spec string) (cdsfetch.Request, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, fmt.Errorf("cdsutil: no request specified; please set the 'request' configuration variable")
	}
	if strings.HasPrefix(spec, "{") {
		return decodeRequest([]byte(spec), ".json")
	}
	path := os.ExpandEnv(spec)
	b, err := cloud.ReadFile(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("cdsutil: reading request file: %v", err)
	}
	r, err := decodeRequest(b, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("cdsutil: request file %s: %v", path, err)
	}
	return r, nil
}

func decodeRequest(b []byte, ext string) (cdsfetch.Request, error) {
	m := make(map[string]interface{})
	switch strings.ToLower(ext) {
	case ".json":
		if err := json.Unmarshal(b, &m); err != nil {
			return nil, err
		}
	case ".toml":
		if _, err := toml.Decode(string(b), &m); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &m); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported request file extension '%s'; valid options are .json, .toml, .yaml and .yml", ext)
	}
	return cdsfetch.RequestOf(m)
}

// parseChunkSpec returns the chunk specification held in v, which is
// either a string in the format "param=size,param=size", a JSON object
// string, or a map from a configuration file. Parameters are split in
// the order they are given, except that maps from configuration files
// have no order and are split in sorted order.
func parseChunkSpec(v interface{}) (cdsfetch.ChunkSpec, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if strings.HasPrefix(s, "{") {
			return chunkSpecJSON(s)
		}
		var cs cdsfetch.ChunkSpec
		for _, kv := range strings.Split(s, ",") {
			parts := strings.SplitN(kv, "=", 2)
			if len(parts) != 2 {
				return nil, fmt.Errorf("cdsutil: invalid chunk '%s'; chunks must be in the format param=size", kv)
			}
			size, err := cast.ToIntE(strings.TrimSpace(parts[1]))
			if err != nil {
				return nil, fmt.Errorf("cdsutil: invalid size for chunk '%s': %v", kv, err)
			}
			cs = append(cs, cdsfetch.Chunk{Param: strings.TrimSpace(parts[0]), Size: size})
		}
		return cs, nil
	default:
		m, err := cast.ToStringMapE(v)
		if err != nil {
			return nil, fmt.Errorf("cdsutil: invalid chunk specification: %v", err)
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		cs := make(cdsfetch.ChunkSpec, len(keys))
		for i, k := range keys {
			size, err := cast.ToIntE(m[k])
			if err != nil {
				return nil, fmt.Errorf("cdsutil: invalid size for chunk '%s': %v", k, err)
			}
			cs[i] = cdsfetch.Chunk{Param: k, Size: size}
		}
		return cs, nil
	}
}

// chunkSpecJSON decodes a JSON object while keeping the order of its keys.
func chunkSpecJSON(s string) (cdsfetch.ChunkSpec, error) {
	d := json.NewDecoder(strings.NewReader(s))
	d.UseNumber()
	if tok, err := d.Token(); err != nil || tok != json.Delim('{') {
		return nil, fmt.Errorf("cdsutil: chunk specification '%s' is not a JSON object", s)
	}
	var cs cdsfetch.ChunkSpec
	for d.More() {
		tok, err := d.Token()
		if err != nil {
			return nil, fmt.Errorf("cdsutil: decoding chunk specification: %v", err)
		}
		var n json.Number
		if err := d.Decode(&n); err != nil {
			return nil, fmt.Errorf("cdsutil: decoding size of chunk '%v': %v", tok, err)
		}
		size, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("cdsutil: invalid size for chunk '%v': %v", tok, err)
		}
		cs = append(cs, cdsfetch.Chunk{Param: tok.(string), Size: int(size)})
	}
	if _, err := d.Token(); err != nil && err != io.EOF {
		return nil, fmt.Errorf("cdsutil: decoding chunk specification: %v", err)
	}
	return cs, nil
}

// GetStringMapString returns a map[string]string from a viper configuration,
// accounting for the fact that it might be a json object if it was set
// from a command line argument.
func GetStringMapString(varName string, cfg *viper.Viper) (map[string]string, error) {
	i := cfg.Get(varName)
	switch t := i.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		return t, nil
	case map[string]interface{}:
		return cast.ToStringMapStringE(t)
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, nil
		}
		o := make(map[string]string)
		if err := json.NewDecoder(strings.NewReader(t)).Decode(&o); err != nil {
			return nil, fmt.Errorf("cdsutil: decoding %s: %v", varName, err)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("cdsutil: invalid type for %s: %#v", varName, i)
	}
}

// interval returns the date interval specified by the 'start', 'stop'
// and 'switch_day' configuration variables. ok is false if no start
// month is specified.
func interval(cfg *viper.Viper) (iv cdsfetch.Interval, ok bool, err error) {
	start := strings.TrimSpace(cfg.GetString("start"))
	if start == "" {
		if cfg.GetString("stop") != "" {
			return iv, false, fmt.Errorf("cdsutil: 'stop' is set but 'start' is not")
		}
		return iv, false, nil
	}
	if iv.Start, err = cdsfetch.ParseMonth(start); err != nil {
		return iv, false, fmt.Errorf("cdsutil: start: %v", err)
	}
	if stop := strings.TrimSpace(cfg.GetString("stop")); stop != "" {
		m, err := cdsfetch.ParseMonth(stop)
		if err != nil {
			return iv, false, fmt.Errorf("cdsutil: stop: %v", err)
		}
		iv.Stop = &m
	}
	iv.SwitchDay = cfg.GetInt("switch_day")
	return iv, true, nil
}

// requests loads the configured request and, if a start month is
// configured, splits it into date fragments.
func requests(ctx context.Context, cfg *viper.Viper, today time.Time) (cdsfetch.RequestSet, error) {
	r, err := loadRequest(ctx, cfg.GetString("request"))
	if err != nil {
		return nil, err
	}
	iv, ok, err := interval(cfg)
	if err != nil {
		return nil, err
	}
	if !ok {
		return cdsfetch.Single{Request: r}, nil
	}
	return cdsfetch.UpdateRequestDate(r, iv, today)
}
