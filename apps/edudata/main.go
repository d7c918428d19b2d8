// Copyright 2025 GSU Analytics

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     http://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// The edudata tool fetches school-level datasets from the Education Data
// Portal and prints them as JSON, CSV or an aligned text table, or saves them
// to a timestamped JSON file.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/GSU-Analytics/EducationDataAPI/edp"
	"github.com/GSU-Analytics/EducationDataAPI/edp/schools"
	"github.com/GSU-Analytics/EducationDataAPI/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/iterator"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	toml "github.com/pelletier/go-toml/v2"
)

// intsFlag is a flag.Value for a comma-separated list of integers.
type intsFlag struct {
	values []int
}

var _ flag.Value = &intsFlag{}

func (f *intsFlag) String() string {
	strs := make([]string, len(f.values))
	for i, v := range f.values {
		strs[i] = strconv.Itoa(v)
	}
	return strings.Join(strs, ",")
}

func (f *intsFlag) Set(s string) error {
	f.values = nil
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return errors.Annotate(err, "invalid integer %q", part)
		}
		f.values = append(f.values, v)
	}
	return nil
}

// segmentsFlag is a flag.Value for a comma-separated list of disaggregation
// segments.
type segmentsFlag struct {
	values []schools.Segment
}

var _ flag.Value = &segmentsFlag{}

func (f *segmentsFlag) String() string {
	return strings.Join(f.values, ",")
}

func (f *segmentsFlag) Set(s string) error {
	f.values = nil
	if s == "" {
		return nil
	}
	for _, part := range strings.Split(s, ",") {
		f.values = append(f.values, strings.TrimSpace(part))
	}
	return nil
}

// filtersFlag is a repeatable flag.Value of name=value filter pairs. Repeated
// names and comma-separated values accumulate into a value list.
type filtersFlag struct {
	values map[string][]string
}

var _ flag.Value = &filtersFlag{}

func (f *filtersFlag) String() string {
	keys := maps.Keys(f.values)
	slices.Sort(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + strings.Join(f.values[k], ",")
	}
	return strings.Join(parts, " ")
}

func (f *filtersFlag) Set(s string) error {
	name, value, found := strings.Cut(s, "=")
	if !found || name == "" {
		return errors.Reason("filter %q must have the form name=value", s)
	}
	if f.values == nil {
		f.values = make(map[string][]string)
	}
	f.values[name] = append(f.values[name], strings.Split(value, ",")...)
	return nil
}

type Flags struct {
	Dataset  string
	Years    intsFlag
	Grade    int
	Segments segmentsFlag
	// Exactly one of -dataset or the -var/-stat/-by triple must be present.
	Var      string
	Stat     string
	By       string
	Filters  filtersFlag
	Config   string // optional TOML config file
	Format   string // json, csv or table
	OutDir   string // write a timestamped JSON file here instead of stdout
	LogLevel logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("edudata", flag.ExitOnError)
	fs.StringVar(&flags.Dataset, "dataset", "",
		"dataset to fetch, one of: "+strings.Join(schools.Datasets(), ", "))
	fs.Var(&flags.Years, "years", "comma-separated years to fetch, e.g. 2013,2015")
	fs.IntVar(&flags.Grade, "grade", schools.TotalGrade,
		"grade level for enrollment datasets; 99 = total across grades")
	fs.Var(&flags.Segments, "segments",
		"comma-separated disaggregation segments, e.g. race,sex")
	fs.StringVar(&flags.Var, "var", "", "variable to summarize")
	fs.StringVar(&flags.Stat, "stat", "",
		"summary statistic, e.g. sum, avg, median")
	fs.StringVar(&flags.By, "by", "", "variable to group the summary by")
	fs.Var(&flags.Filters, "filter",
		"filter as name=value or name=v1,v2; may be repeated")
	fs.StringVar(&flags.Config, "conf", "", "optional TOML config file")
	fs.StringVar(&flags.Format, "format", "json", "output format: json, csv or table")
	fs.StringVar(&flags.OutDir, "out", "",
		"write the response to a timestamped JSON file in this directory")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	summary := flags.Var != "" || flags.Stat != "" || flags.By != ""
	if summary {
		if flags.Dataset != "" {
			return nil, errors.Reason(
				"expected exactly one of -dataset or the -var/-stat/-by summary")
		}
		if flags.Var == "" || flags.Stat == "" || flags.By == "" {
			return nil, errors.Reason("-var, -stat and -by must be used together")
		}
	} else {
		if flags.Dataset == "" {
			return nil, errors.Reason("missing required -dataset argument")
		}
		if len(flags.Years.values) == 0 {
			return nil, errors.Reason("missing required -years argument")
		}
	}
	switch flags.Format {
	case "json", "csv", "table":
	default:
		return nil, errors.Reason("-format must be one of: json, csv, table")
	}
	return &flags, err
}

type Config struct {
	BaseURL string `toml:"base_url"` // overrides the default portal URL
	Timeout string `toml:"timeout"`  // HTTP timeout, e.g. "1m30s"
}

func parseConfig(filePath string) (*Config, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to open config file %s", filePath)
	}
	defer f.Close()

	d := toml.NewDecoder(f)
	var c Config
	if err := d.Decode(&c); err != nil {
		return nil, errors.Annotate(err, "failed to read config file %s", filePath)
	}
	return &c, nil
}

// useClient injects the portal client into the context, honoring the optional
// config file.
func useClient(ctx context.Context, confPath string) (context.Context, error) {
	if confPath == "" {
		return edp.UseClient(ctx, nil), nil
	}
	c, err := parseConfig(confPath)
	if err != nil {
		return nil, errors.Annotate(err, "failed to parse config")
	}
	if c.BaseURL != "" {
		edp.URL = c.BaseURL
	}
	var ua *http.Client
	if c.Timeout != "" {
		d, err := time.ParseDuration(c.Timeout)
		if err != nil {
			return nil, errors.Annotate(err, "invalid timeout %q in config", c.Timeout)
		}
		ua = &http.Client{Timeout: d}
	}
	return edp.UseClient(ctx, ua), nil
}

// datasetFilters converts raw -filter values to typed filters based on the
// descriptor. Unrecognized parameters stay as strings and pass through.
func datasetFilters(d schools.Descriptor, raw map[string][]string) (schools.Filters, error) {
	f := make(schools.Filters)
	for name, values := range raw {
		kind := schools.StrKind
		if k, ok := d.Params[name]; ok {
			kind = k
		}
		switch kind {
		case schools.IntKind:
			ints := make([]int, len(values))
			for i, v := range values {
				n, err := strconv.Atoi(v)
				if err != nil {
					return nil, errors.Annotate(err, "filter %s expects integer values", name)
				}
				ints[i] = n
			}
			if len(ints) == 1 {
				f[name] = ints[0]
			} else {
				f[name] = ints
			}
		case schools.FloatKind:
			floats := make([]float64, len(values))
			for i, v := range values {
				n, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return nil, errors.Annotate(err, "filter %s expects numeric values", name)
				}
				floats[i] = n
			}
			if len(floats) == 1 {
				f[name] = floats[0]
			} else {
				f[name] = floats
			}
		default:
			if len(values) == 1 {
				f[name] = values[0]
			} else {
				f[name] = values
			}
		}
	}
	return f, nil
}

// yearResult is the outcome of fetching one year.
type yearResult struct {
	year int
	rows []edp.Row
	err  error
}

// mergeYears flattens per-year results in the originally requested order. The
// first error in that order aborts the merge.
func mergeYears(years []int, results map[int]yearResult) ([]edp.Row, error) {
	var rows []edp.Row
	for _, year := range years {
		r := results[year]
		if r.err != nil {
			return nil, r.err
		}
		rows = append(rows, r.rows...)
	}
	return rows, nil
}

// fetchRows downloads all requested data. Multiple years are independent
// queries and fetch in parallel.
func fetchRows(ctx context.Context, flags *Flags) ([]edp.Row, error) {
	if flags.Var != "" {
		d, _ := schools.Describe(schools.CCDDirectory)
		f, err := datasetFilters(d, flags.Filters.values)
		if err != nil {
			return nil, err
		}
		return schools.FetchCCDSummary(ctx, flags.Var, flags.Stat, flags.By, f)
	}
	d, ok := schools.Describe(flags.Dataset)
	if !ok {
		return nil, errors.Reason("unknown dataset %q; supported: %s",
			flags.Dataset, strings.Join(schools.Datasets(), ", "))
	}
	f, err := datasetFilters(d, flags.Filters.values)
	if err != nil {
		return nil, err
	}

	years := flags.Years.values
	fetchYear := func(year int) yearResult {
		rows, err := schools.Fetch(ctx, flags.Dataset, year, flags.Grade, f,
			flags.Segments.values...)
		if err != nil {
			return yearResult{year: year, err: errors.Annotate(err,
				"failed to fetch year %d", year)}
		}
		return yearResult{year: year, rows: rows}
	}
	pm := iterator.ParallelMap(ctx, 2*runtime.NumCPU(), iterator.FromSlice(years), fetchYear)
	defer pm.Close()

	results := iterator.Reduce[yearResult, map[int]yearResult](pm,
		map[int]yearResult{}, func(r yearResult, m map[int]yearResult) map[int]yearResult {
			m[r.year] = r
			return m
		})
	return mergeYears(years, results)
}

// writeRows writes the rows to w in the requested format.
func writeRows(rows []edp.Row, format string, w io.Writer) error {
	switch format {
	case "csv":
		return table.FromMaps(rows).WriteCSV(w, table.Params{})
	case "table":
		return table.FromMaps(rows).WriteText(w, table.Params{})
	}
	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return errors.Annotate(err, "failed to marshal rows")
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

// writeFile writes the rows as indented JSON to a timestamped file in dir.
func writeFile(ctx context.Context, rows []edp.Row, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return errors.Annotate(err, "failed to create output directory %s", dir)
	}
	name := fmt.Sprintf("response_%s.json", time.Now().Format("20060102_150405"))
	filePath := filepath.Join(dir, name)
	data, err := json.MarshalIndent(rows, "", "    ")
	if err != nil {
		return errors.Annotate(err, "failed to marshal rows")
	}
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return errors.Annotate(err, "failed to write %s", filePath)
	}
	logging.Infof(ctx, "saved %d rows to %s", len(rows), filePath)
	return nil
}

func run(ctx context.Context, flags *Flags, w io.Writer) error {
	rows, err := fetchRows(ctx, flags)
	if err != nil {
		return errors.Annotate(err, "failed to fetch data")
	}
	if rows == nil {
		rows = []edp.Row{}
	}
	if flags.OutDir != "" {
		return writeFile(ctx, rows, flags.OutDir)
	}
	return writeRows(rows, flags.Format, w)
}

func main() {
	ctx := context.Background()
	flags, err := parseFlags(os.Args[1:])
	if err != nil {
		ctx = logging.Use(ctx, logging.DefaultGoLogger(logging.Info))
		logging.Errorf(ctx, "failed to parse flags: %s", err.Error())
		os.Exit(1)
	}
	ctx = logging.Use(ctx, logging.DefaultGoLogger(flags.LogLevel))

	ctx, err = useClient(ctx, flags.Config)
	if err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
	if err := run(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
