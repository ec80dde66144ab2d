// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormDataUnmarshalPreservesOrder(t *testing.T) {
	var d FormData
	err := json.Unmarshal([]byte(`{"zeta":"last","alpha":"first","budget":1500,"urgent":true}`), &d)
	require.NoError(t, err)

	assert.Equal(t, []string{"zeta", "alpha", "budget", "urgent"}, d.Keys())

	budget, ok := d.Get("budget")
	assert.True(t, ok)
	assert.Equal(t, "1500", budget)

	urgent, _ := d.Get("urgent")
	assert.Equal(t, "true", urgent)
}

func TestFormDataRejectsNestedValues(t *testing.T) {
	inputs := []string{
		`{"name":"a","extra":{"x":1}}`,
		`{"tags":["a","b"]}`,
	}

	for _, in := range inputs {
		var d FormData
		err := json.Unmarshal([]byte(in), &d)
		if !errors.Is(err, ErrUnsupportedFormValue) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrUnsupportedFormValue", in, err)
		}
	}
}

func TestFormDataRejectsNonObject(t *testing.T) {
	var d FormData
	if err := json.Unmarshal([]byte(`["a"]`), &d); err == nil {
		t.Error("expected error for array payload")
	}
}

func TestFormDataDropsNulls(t *testing.T) {
	var d FormData
	require.NoError(t, json.Unmarshal([]byte(`{"name":"Ann","phone":null}`), &d))

	_, ok := d.Get("phone")
	assert.False(t, ok)
	assert.Len(t, d, 1)
}

func TestFormDataMarshalRoundTripOrder(t *testing.T) {
	d := FormData{}
	d.Set("message", "hello")
	d.Set("email", "a@x.com")
	d.Set("count", json.Number("3"))
	d.Set("message", "updated")

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `{"message":"updated","email":"a@x.com","count":3}`, string(out))
}

func TestFormDataScan(t *testing.T) {
	var d FormData
	require.NoError(t, d.Scan(`{"b":"2","a":"1"}`))
	assert.Equal(t, []string{"b", "a"}, d.Keys())

	var bad FormData
	require.NoError(t, bad.Scan("not json"))
	assert.Empty(t, bad)
	assert.NotNil(t, bad)
}

func TestFormatFormValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"text", "text"},
		{true, "true"},
		{json.Number("2.5"), "2.5"},
		{float64(10), "10"},
		{int64(7), "7"},
	}
	for _, tt := range tests {
		if got := FormatFormValue(tt.in); got != tt.want {
			t.Errorf("FormatFormValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
