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

package table

import (
	"bytes"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type testRow struct {
	School string
	State  string
}

func (r testRow) CSV() []string { return []string{r.School, r.State} }

func TestTable(t *testing.T) {
	t.Parallel()

	Convey("Table methods work", t, func() {
		t := NewTable("school", "state")
		headless := NewTable()

		So(t.Header, ShouldResemble, []string{"school", "state"})
		t.AddRow(testRow{"Albertville", "AL"}, testRow{"Ashford", "AL"})
		headless.AddRow(testRow{"Albertville", "AL"}, testRow{"Ashford", "AL"})

		Convey("AddRow worked", func() {
			So(len(t.Rows), ShouldEqual, 2)
			So(len(headless.Rows), ShouldEqual, 2)
		})

		Convey("WriteCSV", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
school,state
Albertville,AL
Ashford,AL
`)
			})

			Convey("Default Params, headless", func() {
				var buf bytes.Buffer
				So(headless.WriteCSV(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Albertville,AL
Ashford,AL
`)
			})

			Convey("Limited rows, no header", func() {
				var buf bytes.Buffer
				So(t.WriteCSV(&buf, Params{Rows: 1, NoHeader: true}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Albertville,AL
`)
			})
		})

		Convey("WriteText", func() {
			Convey("Default Params", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
     school | state
----------- | -----
Albertville |    AL
    Ashford |    AL
`)
			})

			Convey("Default Params, headless", func() {
				var buf bytes.Buffer
				So(headless.WriteText(&buf, Params{}), ShouldBeNil)
				So("\n"+buf.String(), ShouldEqual, `
Albertville | AL
    Ashford | AL
`)
			})

			Convey("Limited rows and width, no header", func() {
				var buf bytes.Buffer
				So(t.WriteText(&buf, Params{Rows: 1, NoHeader: true, MaxColWidth: 4}), ShouldBeNil)
				So("\n"+buf.String(), ShouldResemble, `
Al.. | AL
`)
			})
		})
	})

	Convey("Cells work", t, func() {
		So(Number(1520).String(), ShouldEqual, "1520")
		So(Number(2.5).String(), ShouldEqual, "2.5")
		So(Number(-86.2062).String(), ShouldEqual, "-86.2062")
		So(String("AL").String(), ShouldEqual, "AL")
		So(Cells{Number(1), String("x")}.CSV(), ShouldResemble, []string{"1", "x"})
	})

	Convey("FromMaps assembles portal rows", t, func() {
		rows := []map[string]interface{}{
			{"fips": 1.0, "school_name": "Albertville High School", "charter": nil},
			{"fips": 1.0, "school_name": "Ashford High School", "enrollment": 608.0},
		}
		tbl := FromMaps(rows)
		So(tbl.Header, ShouldResemble,
			[]string{"charter", "enrollment", "fips", "school_name"})

		Convey("as CSV", func() {
			var buf bytes.Buffer
			So(tbl.WriteCSV(&buf, Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
charter,enrollment,fips,school_name
,,1,Albertville High School
,608,1,Ashford High School
`)
		})

		Convey("as text", func() {
			var buf bytes.Buffer
			So(tbl.WriteText(&buf, Params{}), ShouldBeNil)
			So("\n"+buf.String(), ShouldEqual, `
charter | enrollment | fips |             school_name
------- | ---------- | ---- | -----------------------
        |            |    1 | Albertville High School
        |        608 |    1 |     Ashford High School
`)
		})

		Convey("booleans render as strings", func() {
			tbl := FromMaps([]map[string]interface{}{{"virtual": true}})
			var buf bytes.Buffer
			So(tbl.WriteCSV(&buf, Params{NoHeader: true}), ShouldBeNil)
			So(buf.String(), ShouldEqual, "true\n")
		})

		Convey("empty input produces an empty table", func() {
			tbl := FromMaps(nil)
			So(len(tbl.Header), ShouldEqual, 0)
			So(len(tbl.Rows), ShouldEqual, 0)
		})
	})
}
