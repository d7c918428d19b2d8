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

// Package schools implements the school-level section of the Education Data
// Portal: the NCES Common Core of Data (CCD) and the Civil Rights Data
// Collection (CRDC) endpoints.
//
// Each dataset is defined by a Descriptor: its endpoint path template, the
// filter parameters it recognizes with their expected value kinds, and the
// disaggregation segment combinations its path accepts. Fetch functions
// validate segments and filter kinds before any network activity;
// unrecognized filters are passed through to the portal with a warning, since
// the portal itself is the final authority on what it accepts.
package schools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/GSU-Analytics/EducationDataAPI/edp"
	"github.com/stockparfait/errors"
	"github.com/stockparfait/logging"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Dataset is a logical name of one fetchable dataset.
type Dataset = string

// Datasets of the schools section.
const (
	CCDDirectory            = Dataset("ccd-directory")
	CCDEnrollment           = Dataset("ccd-enrollment")
	CRDCDirectory           = Dataset("crdc-directory")
	CRDCEnrollment          = Dataset("crdc-enrollment")
	CRDCDiscipline          = Dataset("crdc-discipline")
	CRDCDisciplineInstances = Dataset("crdc-discipline-instances")
	CRDCBullyingAllegations = Dataset("crdc-bullying-allegations")
	CRDCBullying            = Dataset("crdc-bullying")
	CRDCAbsenteeism         = Dataset("crdc-absenteeism")
	CRDCRestraintInstances  = Dataset("crdc-restraint-instances")
	CRDCRestraint           = Dataset("crdc-restraint")
	CRDCAdvancedEnrollment  = Dataset("crdc-advanced-enrollment")
)

// Segment is a disaggregation dimension appearing as a path component after
// the year.
type Segment = string

// Segments recognized by the portal.
const (
	ByDisability = Segment("disability")
	ByLEP        = Segment("lep")
	ByRace       = Segment("race")
	BySex        = Segment("sex")
)

// segmentRank orders segments as they appear in endpoint paths.
var segmentRank = map[Segment]int{
	ByDisability: 0,
	ByLEP:        1,
	ByRace:       2,
	BySex:        3,
}

// Kind is the expected value kind of a recognized filter parameter.
type Kind string

// Values for Kind.
const (
	IntKind   = Kind("int")
	StrKind   = Kind("str")
	FloatKind = Kind("float")
)

// Descriptor defines one dataset: the endpoint path template with a year
// verb (and a grade verb when Grade is set), the recognized filter parameters
// with their expected kinds, and the allowed segment combinations, each in
// path order.
type Descriptor struct {
	Path   string
	Grade  bool
	Params map[string]Kind
	Combos [][]Segment
}

// path expands the template. The grade is used only when the path has a grade
// level.
func (d Descriptor) path(year, grade int) string {
	if d.Grade {
		return fmt.Sprintf(d.Path, year, grade)
	}
	return fmt.Sprintf(d.Path, year)
}

// comboAllowed tests the normalized segment list against the allowed
// combinations.
func (d Descriptor) comboAllowed(segments []Segment) bool {
	for _, c := range d.Combos {
		if slices.Equal(c, segments) {
			return true
		}
	}
	return false
}

// none is the empty segment combination.
var none = []Segment{}

// byDataset maps every dataset to its descriptor. The parameter lists follow
// the portal's variable catalog for each endpoint.
var byDataset = map[Dataset]Descriptor{
	CCDDirectory: {
		Path:   "schools/ccd/directory/%d/",
		Combos: [][]Segment{none},
		Params: map[string]Kind{
			"ncessch":                  StrKind,
			"ncessch_num":              IntKind,
			"school_id":                StrKind,
			"leaid":                    StrKind,
			"state_leaid":              StrKind,
			"seasch":                   StrKind,
			"state_location":           StrKind,
			"fips":                     IntKind,
			"csa":                      IntKind,
			"cbsa":                     IntKind,
			"urban_centric_locale":     IntKind,
			"congress_district_id":     IntKind,
			"state_leg_district_lower": StrKind,
			"state_leg_district_upper": StrKind,
			"school_level":             IntKind,
			"school_type":              IntKind,
			"school_status":            IntKind,
			"bureau_indian_education":  IntKind,
			"title_i_status":           IntKind,
			"title_i_eligible":         IntKind,
			"title_i_schoolwide":       IntKind,
			"charter":                  IntKind,
			"magnet":                   IntKind,
			"shared_time":              IntKind,
			"virtual":                  IntKind,
			"enrollment":               IntKind,
		},
	},
	CCDEnrollment: {
		Path:   "schools/ccd/enrollment/%d/grade-%d/",
		Grade:  true,
		Combos: [][]Segment{none, {ByRace}, {BySex}, {ByRace, BySex}},
		Params: map[string]Kind{
			"ncessch":     StrKind,
			"ncessch_num": IntKind,
			"leaid":       StrKind,
			"fips":        IntKind,
			"race":        IntKind,
			"sex":         IntKind,
			"enrollment":  IntKind,
		},
	},
	CRDCDirectory: {
		Path:   "schools/crdc/directory/%d/",
		Combos: [][]Segment{none},
		Params: map[string]Kind{
			"crdc_id":                        StrKind,
			"ncessch":                        StrKind,
			"leaid":                          StrKind,
			"fips":                           IntKind,
			"school_name_crdc":               StrKind,
			"schoolid_crdc":                  StrKind,
			"lea_name":                       StrKind,
			"leaid_crdc":                     StrKind,
			"lea_state":                      StrKind,
			"prek":                           IntKind,
			"k":                              IntKind,
			"g1":                             IntKind,
			"g2":                             IntKind,
			"g3":                             IntKind,
			"g4":                             IntKind,
			"g5":                             IntKind,
			"g6":                             IntKind,
			"g7":                             IntKind,
			"g8":                             IntKind,
			"g9":                             IntKind,
			"g10":                            IntKind,
			"g11":                            IntKind,
			"g12":                            IntKind,
			"ug":                             IntKind,
			"primarily_serve_students_w_dis": IntKind,
			"charter_crdc":                   IntKind,
			"magnet_crdc":                    IntKind,
			"entire_school_magnet":           IntKind,
			"alt_school":                     IntKind,
			"alt_school_focus":               IntKind,
			"ability_grouped_math_or_eng":    IntKind,
			"ug_elementary_school":           IntKind,
			"ug_middle_school":               IntKind,
			"ug_high_school":                 IntKind,
		},
	},
	CRDCEnrollment: {
		Path: "schools/crdc/enrollment/%d/",
		Combos: [][]Segment{
			none,
			{BySex},
			{ByRace, BySex},
			{ByDisability, BySex},
			{ByLEP, BySex},
		},
		Params: map[string]Kind{
			"crdc_id":           StrKind,
			"ncessch":           StrKind,
			"leaid":             StrKind,
			"fips":              IntKind,
			"sex":               IntKind,
			"race":              IntKind,
			"disability":        IntKind,
			"lep":               IntKind,
			"enrollment_crdc":   IntKind,
			"psenrollment_crdc": IntKind,
		},
	},
	CRDCDisciplineInstances: {
		Path:   "schools/crdc/discipline-instances/%d/",
		Combos: [][]Segment{none},
		Params: map[string]Kind{
			"crdc_id":                         StrKind,
			"ncessch":                         StrKind,
			"leaid":                           StrKind,
			"fips":                            IntKind,
			"disability":                      IntKind,
			"suspensions_instances":           FloatKind,
			"suspensions_instances_preschool": FloatKind,
			"corpinstances":                   FloatKind,
			"corpinstances_preschool":         FloatKind,
		},
	},
	CRDCDiscipline: {
		Path: "schools/crdc/discipline/%d/",
		Combos: [][]Segment{
			{ByDisability, BySex},
			{ByDisability, ByRace, BySex},
			{ByDisability, ByLEP, BySex},
		},
		Params: map[string]Kind{
			"crdc_id":                        StrKind,
			"ncessch":                        StrKind,
			"leaid":                          StrKind,
			"fips":                           IntKind,
			"sex":                            IntKind,
			"race":                           IntKind,
			"disability":                     IntKind,
			"lep":                            IntKind,
			"students_susp_in_sch":           IntKind,
			"students_susp_out_sch_single":   IntKind,
			"students_susp_out_sch_multiple": IntKind,
			"expulsions_no_ed_serv":          IntKind,
			"expulsions_with_ed_serv":        IntKind,
			"expulsions_zero_tolerance":      IntKind,
			"students_corporal_punish":       IntKind,
			"students_arrested":              IntKind,
			"students_referred_law_enforce":  IntKind,
			"transfers_alt_sch_disc":         FloatKind,
			"revised_flag":                   IntKind,
		},
	},
	CRDCBullyingAllegations: {
		Path:   "schools/crdc/harassment-or-bullying/%d/allegations/",
		Combos: [][]Segment{none},
		Params: map[string]Kind{
			"crdc_id":                       StrKind,
			"ncessch":                       StrKind,
			"leaid":                         StrKind,
			"fips":                          IntKind,
			"allegations_harass_sex":        FloatKind,
			"allegations_harass_race":       FloatKind,
			"allegations_harass_disability": FloatKind,
			"allegations_harass_orient":     FloatKind,
			"allegations_harass_religion":   FloatKind,
		},
	},
	CRDCBullying: {
		Path: "schools/crdc/harassment-or-bullying/%d/",
		Combos: [][]Segment{
			{ByRace, BySex},
			{ByDisability, BySex},
			{ByLEP, BySex},
		},
		Params: standardCRDCParams(),
	},
	CRDCAbsenteeism: {
		Path: "schools/crdc/chronic-absenteeism/%d/",
		Combos: [][]Segment{
			none,
			{ByRace, BySex},
			{ByDisability, BySex},
			{ByLEP, BySex},
		},
		Params: standardCRDCParams(),
	},
	CRDCRestraintInstances: {
		Path:   "schools/crdc/restraint-and-seclusion/%d/instances/",
		Combos: [][]Segment{none},
		Params: map[string]Kind{
			"crdc_id":                  StrKind,
			"ncessch":                  StrKind,
			"leaid":                    StrKind,
			"fips":                     IntKind,
			"disability":               IntKind,
			"instances_mech_restraint": FloatKind,
			"instances_phys_restraint": FloatKind,
			"instances_seclusion":      FloatKind,
		},
	},
	CRDCRestraint: {
		Path: "schools/crdc/restraint-and-seclusion/%d/",
		Combos: [][]Segment{
			{ByDisability, BySex},
			{ByDisability, ByRace, BySex},
			{ByDisability, ByLEP, BySex},
		},
		Params: standardCRDCParams(),
	},
	CRDCAdvancedEnrollment: {
		Path: "schools/crdc/ap-ib-enrollment/%d/",
		Combos: [][]Segment{
			{ByRace, BySex},
			{ByDisability, BySex},
			{ByLEP, BySex},
		},
		Params: standardCRDCParams(),
	},
}

// standardCRDCParams lists the filters common to the segmented CRDC
// endpoints.
func standardCRDCParams() map[string]Kind {
	return map[string]Kind{
		"crdc_id":    StrKind,
		"ncessch":    StrKind,
		"leaid":      StrKind,
		"fips":       IntKind,
		"sex":        IntKind,
		"race":       IntKind,
		"disability": IntKind,
		"lep":        IntKind,
	}
}

// summariesPath is the CCD directory summary endpoint. Unlike the data
// endpoints, it has no trailing slash and takes its aggregation arguments as
// query parameters.
const summariesPath = "schools/ccd/directory/summaries"

// Describe returns the descriptor of the given dataset.
func Describe(dataset Dataset) (Descriptor, bool) {
	d, ok := byDataset[dataset]
	return d, ok
}

// Datasets lists all supported dataset names in alphabetical order.
func Datasets() []Dataset {
	ds := maps.Keys(byDataset)
	slices.Sort(ds)
	return ds
}

// Filters map filter parameters to their values. A value may be an int, a
// string, a float64, or a slice of one of these; slices serialize as a
// comma-joined list.
type Filters map[string]interface{}

// filterValues serializes a single filter value.
func filterValues(v interface{}) ([]string, error) {
	switch t := v.(type) {
	case int:
		return []string{strconv.Itoa(t)}, nil
	case []int:
		strs := make([]string, len(t))
		for i, n := range t {
			strs[i] = strconv.Itoa(n)
		}
		return strs, nil
	case string:
		return []string{t}, nil
	case []string:
		return t, nil
	case float64:
		return []string{strconv.FormatFloat(t, 'f', -1, 64)}, nil
	case []float64:
		strs := make([]string, len(t))
		for i, n := range t {
			strs[i] = strconv.FormatFloat(n, 'f', -1, 64)
		}
		return strs, nil
	}
	return nil, errors.Reason("unsupported filter value type %T: %v", v, v)
}

// checkKind verifies that the value matches the expected kind of a recognized
// parameter. Int values are acceptable where a float is expected.
func checkKind(name string, kind Kind, v interface{}) error {
	ok := false
	switch kind {
	case IntKind:
		switch v.(type) {
		case int, []int:
			ok = true
		}
	case StrKind:
		switch v.(type) {
		case string, []string:
			ok = true
		}
	case FloatKind:
		switch v.(type) {
		case float64, []float64, int, []int:
			ok = true
		}
	}
	if !ok {
		return errors.Reason("filter %s expects %s values, received %T: %v",
			name, kind, v, v)
	}
	return nil
}

// apply adds the filters to the query in sorted key order. Recognized
// parameters are checked against their expected kind; unrecognized parameters
// are passed through verbatim.
func (f Filters) apply(q *edp.Query, params map[string]Kind) (*edp.Query, error) {
	keys := maps.Keys(f)
	slices.Sort(keys)
	for _, name := range keys {
		if kind, ok := params[name]; ok {
			if err := checkKind(name, kind, f[name]); err != nil {
				return nil, err
			}
		}
		values, err := filterValues(f[name])
		if err != nil {
			return nil, errors.Annotate(err, "filter %s", name)
		}
		q = q.Filter(name, values...)
	}
	return q, nil
}

// normalizeSegments deduplicates and orders the segments as they appear in
// endpoint paths.
func normalizeSegments(segments []Segment) ([]Segment, error) {
	seen := map[Segment]bool{}
	res := []Segment{}
	for _, s := range segments {
		if _, ok := segmentRank[s]; !ok {
			return nil, errors.Reason("unknown segment %q", s)
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		res = append(res, s)
	}
	slices.SortFunc(res, func(a, b Segment) bool {
		return segmentRank[a] < segmentRank[b]
	})
	return res, nil
}

// combosString prints the allowed segment combinations for error messages.
func combosString(combos [][]Segment) string {
	parts := make([]string, len(combos))
	for i, c := range combos {
		if len(c) == 0 {
			parts[i] = "(none)"
			continue
		}
		parts[i] = strings.Join(c, "/")
	}
	return strings.Join(parts, ", ")
}

// Query builds the endpoint query for the given dataset without executing it.
// The grade argument is used only by datasets whose path includes a grade
// level. Segments may be given in any order; duplicates are dropped.
func Query(dataset Dataset, year, grade int, f Filters, segments ...Segment) (*edp.Query, error) {
	d, ok := byDataset[dataset]
	if !ok {
		return nil, errors.Reason("unknown dataset %q; supported: %s",
			dataset, strings.Join(Datasets(), ", "))
	}
	segs, err := normalizeSegments(segments)
	if err != nil {
		return nil, errors.Annotate(err, "%s", dataset)
	}
	if !d.comboAllowed(segs) {
		return nil, errors.Reason(
			"%s does not support segment combination %q; supported: %s",
			dataset, strings.Join(segs, "/"), combosString(d.Combos))
	}
	path := d.path(year, grade)
	for _, s := range segs {
		path += s + "/"
	}
	return f.apply(edp.NewQuery(path), d.Params)
}

// warnUnknown logs a warning for filters not recognized by the descriptor.
// They are still sent to the portal, which is the final authority.
func warnUnknown(ctx context.Context, dataset Dataset, params map[string]Kind, f Filters) {
	keys := maps.Keys(f)
	slices.Sort(keys)
	for _, name := range keys {
		if _, ok := params[name]; !ok {
			logging.Warningf(ctx, "%s: passing through unrecognized filter %q",
				dataset, name)
		}
	}
}

// Fetch executes the dataset query and collects rows from all pages.
func Fetch(ctx context.Context, dataset Dataset, year, grade int, f Filters, segments ...Segment) ([]edp.Row, error) {
	q, err := Query(dataset, year, grade, f, segments...)
	if err != nil {
		return nil, err
	}
	warnUnknown(ctx, dataset, byDataset[dataset].Params, f)
	return q.ReadAll(ctx)
}

// FetchCCDDirectory fetches the CCD school directory for the given year.
func FetchCCDDirectory(ctx context.Context, year int, f Filters) ([]edp.Row, error) {
	return Fetch(ctx, CCDDirectory, year, 0, f)
}

// TotalGrade requests enrollment totals across all grade levels.
const TotalGrade = 99

// FetchCCDEnrollment fetches CCD enrollment counts for the given year and
// grade, optionally disaggregated by race and sex. Grade TotalGrade requests
// the total across grades.
func FetchCCDEnrollment(ctx context.Context, year, grade int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CCDEnrollment, year, grade, f, segments...)
}

// FetchCRDCDirectory fetches the CRDC school directory for the given year.
func FetchCRDCDirectory(ctx context.Context, year int, f Filters) ([]edp.Row, error) {
	return Fetch(ctx, CRDCDirectory, year, 0, f)
}

// FetchCRDCEnrollment fetches CRDC enrollment counts, optionally
// disaggregated. Race, disability and LEP segments each require the sex
// segment.
func FetchCRDCEnrollment(ctx context.Context, year int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CRDCEnrollment, year, 0, f, segments...)
}

// FetchCRDCDisciplineInstances fetches school-level counts of discipline
// instances.
func FetchCRDCDisciplineInstances(ctx context.Context, year int, f Filters) ([]edp.Row, error) {
	return Fetch(ctx, CRDCDisciplineInstances, year, 0, f)
}

// FetchCRDCDiscipline fetches students subjected to disciplinary action,
// disaggregated. The disability and sex segments are always required; race or
// LEP may be added.
func FetchCRDCDiscipline(ctx context.Context, year int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CRDCDiscipline, year, 0, f, segments...)
}

// FetchCRDCBullyingAllegations fetches school-level counts of harassment or
// bullying allegations.
func FetchCRDCBullyingAllegations(ctx context.Context, year int, f Filters) ([]edp.Row, error) {
	return Fetch(ctx, CRDCBullyingAllegations, year, 0, f)
}

// FetchCRDCBullying fetches students involved in harassment or bullying,
// disaggregated by race, disability or LEP, each combined with sex.
func FetchCRDCBullying(ctx context.Context, year int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CRDCBullying, year, 0, f, segments...)
}

// FetchCRDCAbsenteeism fetches chronic absenteeism counts, optionally
// disaggregated.
func FetchCRDCAbsenteeism(ctx context.Context, year int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CRDCAbsenteeism, year, 0, f, segments...)
}

// FetchCRDCRestraintInstances fetches school-level counts of restraint and
// seclusion instances.
func FetchCRDCRestraintInstances(ctx context.Context, year int, f Filters) ([]edp.Row, error) {
	return Fetch(ctx, CRDCRestraintInstances, year, 0, f)
}

// FetchCRDCRestraint fetches students subjected to restraint or seclusion,
// disaggregated like the discipline endpoint.
func FetchCRDCRestraint(ctx context.Context, year int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CRDCRestraint, year, 0, f, segments...)
}

// FetchCRDCAdvancedEnrollment fetches AP and IB enrollment counts,
// disaggregated by race, disability or LEP, each combined with sex.
func FetchCRDCAdvancedEnrollment(ctx context.Context, year int, f Filters, segments ...Segment) ([]edp.Row, error) {
	return Fetch(ctx, CRDCAdvancedEnrollment, year, 0, f, segments...)
}

// QueryCCDSummary builds a summary statistics query without executing it.
// The variable, the statistic and the grouping are all required; the portal
// validates the statistic name itself.
func QueryCCDSummary(variable, stat, by string, f Filters) (*edp.Query, error) {
	if variable == "" || stat == "" || by == "" {
		return nil, errors.Reason("var, stat and by are all required for a summary")
	}
	q := edp.NewQuery(summariesPath).
		Filter("var", variable).
		Filter("stat", stat).
		Filter("by", by)
	return f.apply(q, byDataset[CCDDirectory].Params)
}

// FetchCCDSummary fetches summary statistics of a CCD directory variable,
// aggregated by the given grouping. Filters refine which schools are
// aggregated.
func FetchCCDSummary(ctx context.Context, variable, stat, by string, f Filters) ([]edp.Row, error) {
	q, err := QueryCCDSummary(variable, stat, by, f)
	if err != nil {
		return nil, err
	}
	warnUnknown(ctx, "ccd-summary", byDataset[CCDDirectory].Params, f)
	return q.ReadAll(ctx)
}
