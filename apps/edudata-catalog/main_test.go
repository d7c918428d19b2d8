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

package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/GSU-Analytics/EducationDataAPI/edp"
	"github.com/stockparfait/fetch"
	"github.com/stockparfait/logging"

	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(t *testing.T) {
	t.Parallel()

	Convey("parseFlags", t, func() {
		Convey("-endpoints with -csv", func() {
			flags, err := parseFlags([]string{
				"-endpoints", "-csv", "-log-level", "warning"})
			So(err, ShouldBeNil)
			So(flags.Endpoints, ShouldBeTrue)
			So(flags.CSV, ShouldBeTrue)
			So(flags.LogLevel, ShouldEqual, logging.Warning)
		})

		Convey("-varlist", func() {
			flags, err := parseFlags([]string{"-varlist"})
			So(err, ShouldBeNil)
			So(flags.Varlist, ShouldBeTrue)
			So(flags.CSV, ShouldBeFalse)
		})

		Convey("no catalog selected", func() {
			_, err := parseFlags([]string{"-csv"})
			So(err, ShouldNotBeNil)
		})

		Convey("incompatible flags", func() {
			_, err := parseFlags([]string{"-endpoints", "-downloads"})
			So(err, ShouldNotBeNil)
		})
	})

	Convey("printData works", t, func() {
		server := fetch.NewTestServer()
		defer server.Close()

		edp.URL = server.URL() + "/api/v1"
		ctx := edp.UseClient(context.Background(), server.Client())

		Convey("endpoints", func() {
			page, err := edp.TestResultsPage([]edp.Row{
				{
					"endpoint_id":     27.0,
					"endpoint_url":    "/api/v1/schools/ccd/directory/{year}/",
					"years_available": "1986-2022",
				},
			}, 1, "")
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}
			flags, err := parseFlags([]string{"-endpoints", "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/api/v1/api-endpoints/")
			So("\n"+buf.String(), ShouldEqual, `
endpoint_id,endpoint_url,years_available
27,/api/v1/schools/ccd/directory/{year}/,1986-2022
`)
		})

		Convey("downloads", func() {
			page, err := edp.TestResultsPage([]edp.Row{
				{"file_name": "ccd_directory.csv", "year": 2013.0},
			}, 1, "")
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}
			flags, err := parseFlags([]string{"-downloads", "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/api/v1/api-downloads/")
			So("\n"+buf.String(), ShouldEqual, `
file_name,year
ccd_directory.csv,2013
`)
		})

		Convey("variables as a text table", func() {
			page, err := edp.TestResultsPage([]edp.Row{
				{"variable": "fips", "format": "fips", "label": "State FIPS"},
				{"variable": "ncessch", "format": "string", "label": "School ID"},
			}, 2, "")
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}
			flags, err := parseFlags([]string{"-variables"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/api/v1/api-variables/")
			So("\n"+buf.String(), ShouldEqual, `
format |      label | variable
------ | ---------- | --------
  fips | State FIPS |     fips
string |  School ID |  ncessch
`)
		})

		Convey("varlist", func() {
			page, err := edp.TestResultsPage([]edp.Row{
				{
					"endpoint_id": 27.0,
					"variable":    "fips",
					"label":       "State FIPS",
					"is_filter":   1.0,
					"data_type":   "int",
					"format":      "fips",
					"values":      "",
				},
				{
					"endpoint_id": 27.0,
					"variable":    "school_name",
					"label":       "School name",
					"is_filter":   false,
					"data_type":   "str",
					"format":      "",
					"values":      "",
				},
			}, 2, "")
			So(err, ShouldBeNil)
			server.ResponseBody = []string{page}
			flags, err := parseFlags([]string{"-varlist", "-csv"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldBeNil)
			So(server.RequestPath, ShouldEqual, "/api/v1/api-endpoint-varlist/")
			So("\n"+buf.String(), ShouldEqual, `
endpoint_id,variable,label,is_filter,data_type,format
27,fips,State FIPS,true,int,fips
27,school_name,School name,false,str,
`)
		})

		Convey("fetch failure propagates", func() {
			server.ResponseBody = []string{"not json"}
			flags, err := parseFlags([]string{"-endpoints"})
			So(err, ShouldBeNil)
			var buf bytes.Buffer
			So(printData(ctx, flags, &buf), ShouldNotBeNil)
		})
	})
}
