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

package edp

import (
	"context"

	"github.com/stockparfait/errors"
)

// Paths of the portal's own catalog endpoints. They use the same envelope as
// the data endpoints.
const (
	endpointsPath       = "api-endpoints/"
	downloadsPath       = "api-downloads/"
	variablesPath       = "api-variables/"
	endpointVarlistPath = "api-endpoint-varlist/"
)

// FetchEndpoints lists all dataset endpoints known to the portal.
func FetchEndpoints(ctx context.Context) ([]Row, error) {
	return NewQuery(endpointsPath).ReadAll(ctx)
}

// FetchDownloads lists the portal's bulk download files.
func FetchDownloads(ctx context.Context) ([]Row, error) {
	return NewQuery(downloadsPath).ReadAll(ctx)
}

// FetchVariables lists all variables known to the portal.
func FetchVariables(ctx context.Context) ([]Row, error) {
	return NewQuery(variablesPath).ReadAll(ctx)
}

// EndpointVariable describes one variable of one endpoint, as listed by the
// portal's variable catalog.
type EndpointVariable struct {
	EndpointID int    // the portal's numeric endpoint ID
	Variable   string // column name, e.g. "fips"
	Label      string // human-readable description
	IsFilter   bool   // whether the endpoint accepts it as a filter
	DataType   string // e.g. "int", "str"
	Format     string // value format hint, e.g. "map"
	Values     string // enumeration of special values, if any
}

var _ RowLoader = &EndpointVariable{}

// FromRow implements RowLoader.
func (r *EndpointVariable) FromRow(row Row) error {
	var err error
	v2str := func(field string) (string, error) {
		return value2str(row[field])
	}

	num, err := value2num(row["endpoint_id"])
	if err != nil {
		return errors.Annotate(err, "endpoint_id should be a number")
	}
	r.EndpointID = int(num)
	if r.Variable, err = v2str("variable"); err != nil {
		return errors.Annotate(err, "variable should be a string")
	}
	if r.Label, err = v2str("label"); err != nil {
		return errors.Annotate(err, "label should be a string")
	}
	if r.IsFilter, err = value2bool(row["is_filter"]); err != nil {
		return errors.Annotate(err, "is_filter should be a boolean or 0/1")
	}
	if r.DataType, err = v2str("data_type"); err != nil {
		return errors.Annotate(err, "data_type should be a string")
	}
	if r.Format, err = v2str("format"); err != nil {
		return errors.Annotate(err, "format should be a string")
	}
	if r.Values, err = v2str("values"); err != nil {
		return errors.Annotate(err, "values should be a string")
	}
	return nil
}

// FetchEndpointVarlist lists the variables of every endpoint as typed rows.
func FetchEndpointVarlist(ctx context.Context) ([]EndpointVariable, error) {
	rows, err := NewQuery(endpointVarlistPath).ReadAll(ctx)
	if err != nil {
		return nil, errors.Annotate(err, "failed to fetch the variable catalog")
	}
	vars := make([]EndpointVariable, len(rows))
	for i, row := range rows {
		if err := vars[i].FromRow(row); err != nil {
			return nil, errors.Annotate(err, "failed to parse catalog row %d", i)
		}
	}
	return vars, nil
}

func typeErr(v Value, tp string) error {
	return errors.Reason("expected %s but found %T: %v", tp, v, v)
}

func value2str(v Value) (string, error) {
	if v == nil {
		return "", nil
	}
	if str, ok := v.(string); ok {
		return str, nil
	}
	return "", typeErr(v, "a string")
}

func value2num(v Value) (float64, error) {
	if v == nil {
		return 0.0, nil
	}
	if num, ok := v.(float64); ok { // JSON numbers always unmarshal to float64
		return num, nil
	}
	return 0.0, typeErr(v, "a number")
}

func value2bool(v Value) (bool, error) {
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case float64: // the catalog encodes flags as 0/1
		return t != 0, nil
	}
	return false, typeErr(v, "a boolean or 0/1")
}
