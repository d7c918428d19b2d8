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

// The edudata-catalog tool prints the portal's metadata catalogs: the
// available endpoints, the bulk download links and the variable descriptions.
package main

import (
	"context"
	"flag"
	"io"
	"os"

	"github.com/GSU-Analytics/EducationDataAPI/edp"
	"github.com/GSU-Analytics/EducationDataAPI/table"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
)

type Flags struct {
	// Exactly one of these must be specified.
	Endpoints bool // print the endpoint catalog
	Downloads bool // print the bulk download catalog
	Variables bool // print the variable catalog
	Varlist   bool // print the per-endpoint variable list
	CSV       bool // print in CSV format; default: text table
	LogLevel  logging.Level
}

func parseFlags(args []string) (*Flags, error) {
	var flags Flags
	fs := flag.NewFlagSet("edudata-catalog", flag.ExitOnError)
	fs.BoolVar(&flags.Endpoints, "endpoints", false, "print the endpoint catalog")
	fs.BoolVar(&flags.Downloads, "downloads", false,
		"print the bulk download catalog")
	fs.BoolVar(&flags.Variables, "variables", false, "print the variable catalog")
	fs.BoolVar(&flags.Varlist, "varlist", false,
		"print the per-endpoint variable list")
	fs.BoolVar(&flags.CSV, "csv", false, "print in CSV format; default: text table")
	flags.LogLevel = logging.Info
	fs.Var(&flags.LogLevel, "log-level", "Log level: debug, info, warning, error")

	err := fs.Parse(args)
	if err != nil {
		return nil, err
	}
	kinds := 0
	if flags.Endpoints {
		kinds++
	}
	if flags.Downloads {
		kinds++
	}
	if flags.Variables {
		kinds++
	}
	if flags.Varlist {
		kinds++
	}
	if kinds != 1 {
		return nil, errors.Reason(
			"expected exactly one of -endpoints, -downloads, -variables or -varlist")
	}
	return &flags, err
}

// varlistTable converts the typed variable list to a printable table.
func varlistTable(vars []edp.EndpointVariable) *table.Table {
	t := table.NewTable(
		"endpoint_id", "variable", "label", "is_filter", "data_type", "format")
	for _, v := range vars {
		isFilter := "false"
		if v.IsFilter {
			isFilter = "true"
		}
		t.AddRow(table.Cells{
			table.Number(float64(v.EndpointID)),
			table.String(v.Variable),
			table.String(v.Label),
			table.String(isFilter),
			table.String(v.DataType),
			table.String(v.Format),
		})
	}
	return t
}

func printData(ctx context.Context, flags *Flags, w io.Writer) error {
	var t *table.Table
	switch {
	case flags.Endpoints:
		rows, err := edp.FetchEndpoints(ctx)
		if err != nil {
			return errors.Annotate(err, "failed to fetch the endpoint catalog")
		}
		t = table.FromMaps(rows)
	case flags.Downloads:
		rows, err := edp.FetchDownloads(ctx)
		if err != nil {
			return errors.Annotate(err, "failed to fetch the download catalog")
		}
		t = table.FromMaps(rows)
	case flags.Variables:
		rows, err := edp.FetchVariables(ctx)
		if err != nil {
			return errors.Annotate(err, "failed to fetch the variable catalog")
		}
		t = table.FromMaps(rows)
	case flags.Varlist:
		vars, err := edp.FetchEndpointVarlist(ctx)
		if err != nil {
			return errors.Annotate(err, "failed to fetch the endpoint variable list")
		}
		t = varlistTable(vars)
	}
	if flags.CSV {
		return t.WriteCSV(w, table.Params{})
	}
	return t.WriteText(w, table.Params{})
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
	ctx = edp.UseClient(ctx, nil)

	if err := printData(ctx, flags, os.Stdout); err != nil {
		logging.Errorf(ctx, err.Error())
		os.Exit(1)
	}
}
