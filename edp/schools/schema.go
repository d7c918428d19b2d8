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
	"github.com/GSU-Analytics/EducationDataAPI/edp"
	"github.com/stockparfait/errors"
)

// School is a typed row of the CCD directory endpoint. Missing or null
// columns load as zero values.
type School struct {
	Year          int
	NCESSchoolID  string // ncessch, zero-padded
	SchoolID      string // state-assigned ID
	Name          string
	LEAID         string // local education agency ID
	LEAName       string
	StateLocation string // two-letter state code
	FIPS          int
	SchoolLevel   int
	SchoolType    int
	SchoolStatus  int
	Charter       int // 1 = yes, 0 = no, negative = not reported
	Magnet        int
	Latitude      float64
	Longitude     float64
	Enrollment    int
}

var _ edp.RowLoader = &School{}

// FromRow implements edp.RowLoader.
func (r *School) FromRow(row edp.Row) error {
	var err error
	v2str := func(field string) (string, error) {
		return value2str(row[field])
	}
	v2int := func(field string) (int, error) {
		return value2int(row[field])
	}

	if r.Year, err = v2int("year"); err != nil {
		return errors.Annotate(err, "year should be a number")
	}
	if r.NCESSchoolID, err = v2str("ncessch"); err != nil {
		return errors.Annotate(err, "ncessch should be a string")
	}
	if r.SchoolID, err = v2str("school_id"); err != nil {
		return errors.Annotate(err, "school_id should be a string")
	}
	if r.Name, err = v2str("school_name"); err != nil {
		return errors.Annotate(err, "school_name should be a string")
	}
	if r.LEAID, err = v2str("leaid"); err != nil {
		return errors.Annotate(err, "leaid should be a string")
	}
	if r.LEAName, err = v2str("lea_name"); err != nil {
		return errors.Annotate(err, "lea_name should be a string")
	}
	if r.StateLocation, err = v2str("state_location"); err != nil {
		return errors.Annotate(err, "state_location should be a string")
	}
	if r.FIPS, err = v2int("fips"); err != nil {
		return errors.Annotate(err, "fips should be a number")
	}
	if r.SchoolLevel, err = v2int("school_level"); err != nil {
		return errors.Annotate(err, "school_level should be a number")
	}
	if r.SchoolType, err = v2int("school_type"); err != nil {
		return errors.Annotate(err, "school_type should be a number")
	}
	if r.SchoolStatus, err = v2int("school_status"); err != nil {
		return errors.Annotate(err, "school_status should be a number")
	}
	if r.Charter, err = v2int("charter"); err != nil {
		return errors.Annotate(err, "charter should be a number")
	}
	if r.Magnet, err = v2int("magnet"); err != nil {
		return errors.Annotate(err, "magnet should be a number")
	}
	if r.Latitude, err = value2num(row["latitude"]); err != nil {
		return errors.Annotate(err, "latitude should be a number")
	}
	if r.Longitude, err = value2num(row["longitude"]); err != nil {
		return errors.Annotate(err, "longitude should be a number")
	}
	if r.Enrollment, err = v2int("enrollment"); err != nil {
		return errors.Annotate(err, "enrollment should be a number")
	}
	return nil
}

// Enrollment is a typed row of the CCD enrollment endpoint. The segment
// columns race and sex are 99 (total) when the query was not disaggregated by
// them.
type Enrollment struct {
	Year         int
	NCESSchoolID string // ncessch
	Grade        int
	Race         int
	Sex          int
	FIPS         int
	Count        int // the enrollment column
}

var _ edp.RowLoader = &Enrollment{}

// FromRow implements edp.RowLoader.
func (r *Enrollment) FromRow(row edp.Row) error {
	var err error
	v2int := func(field string) (int, error) {
		return value2int(row[field])
	}

	if r.Year, err = v2int("year"); err != nil {
		return errors.Annotate(err, "year should be a number")
	}
	if r.NCESSchoolID, err = value2str(row["ncessch"]); err != nil {
		return errors.Annotate(err, "ncessch should be a string")
	}
	if r.Grade, err = v2int("grade"); err != nil {
		return errors.Annotate(err, "grade should be a number")
	}
	if r.Race, err = v2int("race"); err != nil {
		return errors.Annotate(err, "race should be a number")
	}
	if r.Sex, err = v2int("sex"); err != nil {
		return errors.Annotate(err, "sex should be a number")
	}
	if r.FIPS, err = v2int("fips"); err != nil {
		return errors.Annotate(err, "fips should be a number")
	}
	if r.Count, err = v2int("enrollment"); err != nil {
		return errors.Annotate(err, "enrollment should be a number")
	}
	return nil
}

// DisciplineIncident is a typed row of the segmented CRDC discipline
// endpoint.
type DisciplineIncident struct {
	Year                           int
	CRDCSchoolID                   string // crdc_id
	NCESSchoolID                   string // ncessch
	FIPS                           int
	Disability                     int
	Race                           int
	Sex                            int
	LEP                            int
	InSchoolSuspensions            int // students_susp_in_sch
	SingleOutOfSchoolSuspensions   int // students_susp_out_sch_single
	MultipleOutOfSchoolSuspensions int // students_susp_out_sch_multiple
	ExpulsionsNoServices           int // expulsions_no_ed_serv
	ExpulsionsWithServices         int // expulsions_with_ed_serv
	Arrests                        int // students_arrested
}

var _ edp.RowLoader = &DisciplineIncident{}

// FromRow implements edp.RowLoader.
func (r *DisciplineIncident) FromRow(row edp.Row) error {
	var err error
	v2str := func(field string) (string, error) {
		return value2str(row[field])
	}
	v2int := func(field string) (int, error) {
		return value2int(row[field])
	}

	if r.Year, err = v2int("year"); err != nil {
		return errors.Annotate(err, "year should be a number")
	}
	if r.CRDCSchoolID, err = v2str("crdc_id"); err != nil {
		return errors.Annotate(err, "crdc_id should be a string")
	}
	if r.NCESSchoolID, err = v2str("ncessch"); err != nil {
		return errors.Annotate(err, "ncessch should be a string")
	}
	if r.FIPS, err = v2int("fips"); err != nil {
		return errors.Annotate(err, "fips should be a number")
	}
	if r.Disability, err = v2int("disability"); err != nil {
		return errors.Annotate(err, "disability should be a number")
	}
	if r.Race, err = v2int("race"); err != nil {
		return errors.Annotate(err, "race should be a number")
	}
	if r.Sex, err = v2int("sex"); err != nil {
		return errors.Annotate(err, "sex should be a number")
	}
	if r.LEP, err = v2int("lep"); err != nil {
		return errors.Annotate(err, "lep should be a number")
	}
	if r.InSchoolSuspensions, err = v2int("students_susp_in_sch"); err != nil {
		return errors.Annotate(err, "students_susp_in_sch should be a number")
	}
	if r.SingleOutOfSchoolSuspensions, err = v2int("students_susp_out_sch_single"); err != nil {
		return errors.Annotate(err, "students_susp_out_sch_single should be a number")
	}
	if r.MultipleOutOfSchoolSuspensions, err = v2int("students_susp_out_sch_multiple"); err != nil {
		return errors.Annotate(err, "students_susp_out_sch_multiple should be a number")
	}
	if r.ExpulsionsNoServices, err = v2int("expulsions_no_ed_serv"); err != nil {
		return errors.Annotate(err, "expulsions_no_ed_serv should be a number")
	}
	if r.ExpulsionsWithServices, err = v2int("expulsions_with_ed_serv"); err != nil {
		return errors.Annotate(err, "expulsions_with_ed_serv should be a number")
	}
	if r.Arrests, err = v2int("students_arrested"); err != nil {
		return errors.Annotate(err, "students_arrested should be a number")
	}
	return nil
}

func typeErr(v edp.Value, tp string) error {
	return errors.Reason("expected %s but found %T: %v", tp, v, v)
}

func value2str(v edp.Value) (string, error) {
	if v == nil {
		return "", nil
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return "", typeErr(v, "a string")
}

func value2num(v edp.Value) (float64, error) {
	if v == nil {
		return 0.0, nil
	}
	if num, ok := v.(float64); ok { // JSON numbers always unmarshal to float64
		return num, nil
	}
	return 0.0, typeErr(v, "a number")
}

func value2int(v edp.Value) (int, error) {
	num, err := value2num(v)
	if err != nil {
		return 0, err
	}
	return int(num), nil
}
