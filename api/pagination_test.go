// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePaginationDefaultValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/v1/migrations", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)

	assert.Equal(t, DefaultPaginationCount, params.Count)
	assert.Equal(t, DefaultPaginationPage, params.Page)
	assert.Equal(t, DefaultPaginationOrderAsc, params.Order)
}

func TestParsePaginationValid(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/migrations?count=25&page=3&order=DESC",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)

	assert.Equal(t, 25, params.Count)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, PaginationOrderDesc, params.Order)
}

func TestParsePaginationClampBounds(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/v1/migrations?count=999&page=0",
		nil,
	)
	params, err := ParsePagination(req)
	require.NoError(t, err)

	assert.Equal(t, MaxPaginationCount, params.Count)
	assert.Equal(t, 1, params.Page)
}

func TestParsePaginationInvalid(t *testing.T) {
	for _, query := range []string{"count=abc", "page=x", "order=sideways"} {
		req := httptest.NewRequest(
			http.MethodGet,
			"/v1/migrations?"+query,
			nil,
		)
		_, err := ParsePagination(req)
		assert.True(
			t,
			errors.Is(err, ErrInvalidPaginationParameters),
			"query=%s",
			query,
		)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	SetPaginationHeaders(w, 250, PaginationParams{Count: 100, Page: 1})
	assert.Equal(t, "250", w.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", w.Header().Get("X-Pagination-Page-Total"))

	w = httptest.NewRecorder()
	SetPaginationHeaders(w, 0, PaginationParams{Count: 100, Page: 1})
	assert.Equal(t, "0", w.Header().Get("X-Pagination-Page-Total"))
}

func TestPaginate(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	assert.Equal(
		t,
		[]int{3, 4},
		Paginate(items, PaginationParams{Count: 2, Page: 2, Order: "asc"}),
	)
	assert.Equal(
		t,
		[]int{5, 4},
		Paginate(items, PaginationParams{Count: 2, Page: 1, Order: "desc"}),
	)
	assert.Equal(
		t,
		[]int{1},
		Paginate(items, PaginationParams{Count: 2, Page: 3, Order: "desc"}),
	)
	assert.Empty(t, Paginate(items, PaginationParams{Count: 2, Page: 4}))
	// The input is left in ascending order
	assert.Equal(t, []int{1, 2, 3, 4, 5}, items)
}
