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

// Package edp implements the generic REST API of the Urban Institute's
// Education Data Portal (EDP).
//
// Official documentation is at https://educationdata.urban.org/documentation/ .
//
// Every endpoint returns the same JSON envelope: a total row count, links to
// the next and previous pages, and the current page of results. A single page
// holds a limited number of rows; the "next" link is a complete URL for the
// following page. This package implements transparent paging in RowIterator,
// so a query reads as one ordered sequence of rows regardless of how many
// pages the portal splits it into.
//
// The portal requires no API key. A Client carrying the base URL and an HTTP
// client is injected into the context with UseClient, which is also how tests
// point queries at a local server.
//
// APIs for specific portal sections, such as the school-level CCD and CRDC
// datasets, are implemented in the subpackages.
package edp
