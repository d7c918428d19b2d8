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

package schools

import (
	"testing"

	"github.com/GSU-Analytics/EducationDataAPI/edp"

	. "github.com/smartystreets/goconvey/convey"
)

func TestSchema(t *testing.T) {
	Convey("School.FromRow works", t, func() {
		row := edp.Row{
			"year":           2013.0,
			"ncessch":        "010000500870",
			"school_id":      "0870",
			"school_name":    "Albertville High School",
			"leaid":          "0100005",
			"lea_name":       "Albertville City",
			"state_location": "AL",
			"fips":           1.0,
			"school_level":   3.0,
			"school_type":    1.0,
			"school_status":  1.0,
			"charter":        0.0,
			"magnet":         nil, // not reported
			"latitude":       34.2602,
			"longitude":      -86.2062,
			"enrollment":     1520.0,
			"extra_column":   "ignored",
		}
		r := School{}
		So(r.FromRow(row), ShouldBeNil)
		So(r, ShouldResemble, School{
			Year:          2013,
			NCESSchoolID:  "010000500870",
			SchoolID:      "0870",
			Name:          "Albertville High School",
			LEAID:         "0100005",
			LEAName:       "Albertville City",
			StateLocation: "AL",
			FIPS:          1,
			SchoolLevel:   3,
			SchoolType:    1,
			SchoolStatus:  1,
			Charter:       0,
			Magnet:        0,
			Latitude:      34.2602,
			Longitude:     -86.2062,
			Enrollment:    1520,
		})

		Convey("missing columns load as zero values", func() {
			r := School{}
			So(r.FromRow(edp.Row{"ncessch": "X"}), ShouldBeNil)
			So(r, ShouldResemble, School{NCESSchoolID: "X"})
		})

		Convey("mistyped column fails", func() {
			r := School{}
			err := r.FromRow(edp.Row{"year": "2013"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "year should be a number")
		})
	})

	Convey("Enrollment.FromRow works", t, func() {
		row := edp.Row{
			"year":       2014.0,
			"ncessch":    "010000200277",
			"grade":      8.0,
			"race":       1.0,
			"sex":        2.0,
			"fips":       1.0,
			"enrollment": 41.0,
		}
		r := Enrollment{}
		So(r.FromRow(row), ShouldBeNil)
		So(r, ShouldResemble, Enrollment{
			Year:         2014,
			NCESSchoolID: "010000200277",
			Grade:        8,
			Race:         1,
			Sex:          2,
			FIPS:         1,
			Count:        41,
		})

		Convey("mistyped enrollment fails", func() {
			r := Enrollment{}
			err := r.FromRow(edp.Row{"enrollment": "many"})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "enrollment should be a number")
		})
	})

	Convey("DisciplineIncident.FromRow works", t, func() {
		row := edp.Row{
			"year":                           2013.0,
			"crdc_id":                        "010000500870",
			"ncessch":                        "010000500870",
			"fips":                           1.0,
			"disability":                     1.0,
			"race":                           99.0,
			"sex":                            1.0,
			"lep":                            99.0,
			"students_susp_in_sch":           12.0,
			"students_susp_out_sch_single":   7.0,
			"students_susp_out_sch_multiple": 3.0,
			"expulsions_no_ed_serv":          0.0,
			"expulsions_with_ed_serv":        1.0,
			"students_arrested":              nil, // suppressed
		}
		r := DisciplineIncident{}
		So(r.FromRow(row), ShouldBeNil)
		So(r, ShouldResemble, DisciplineIncident{
			Year:                           2013,
			CRDCSchoolID:                   "010000500870",
			NCESSchoolID:                   "010000500870",
			FIPS:                           1,
			Disability:                     1,
			Race:                           99,
			Sex:                            1,
			LEP:                            99,
			InSchoolSuspensions:            12,
			SingleOutOfSchoolSuspensions:   7,
			MultipleOutOfSchoolSuspensions: 3,
			ExpulsionsNoServices:           0,
			ExpulsionsWithServices:         1,
			Arrests:                        0,
		})

		Convey("mistyped crdc_id fails", func() {
			r := DisciplineIncident{}
			err := r.FromRow(edp.Row{"crdc_id": 5.0})
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "crdc_id should be a string")
		})
	})
}
