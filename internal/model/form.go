// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrUnsupportedFormValue is returned when a payload value is an object or array.
var ErrUnsupportedFormValue = errors.New("form values must be strings, numbers or booleans")

// FormField is a single submitted key/value pair.
// Value is a string, json.Number or bool.
type FormField struct {
	Key   string
	Value any
}

// FormData is an ordered form payload. Keys keep the order they were
// submitted in, both in JSON and in storage.
type FormData []FormField

// Get returns the value for key rendered as a string.
func (d FormData) Get(key string) (string, bool) {
	for _, f := range d {
		if f.Key == key {
			return FormatFormValue(f.Value), true
		}
	}
	return "", false
}

// Set replaces the value of an existing key in place or appends a new one.
func (d *FormData) Set(key string, value any) {
	for i := range *d {
		if (*d)[i].Key == key {
			(*d)[i].Value = value
			return
		}
	}
	*d = append(*d, FormField{Key: key, Value: value})
}

// Keys returns the keys in submission order.
func (d FormData) Keys() []string {
	keys := make([]string, len(d))
	for i, f := range d {
		keys[i] = f.Key
	}
	return keys
}

// FormatFormValue renders a scalar payload value for display and export.
func FormatFormValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(val, 10)
	case int:
		return strconv.Itoa(val)
	default:
		return fmt.Sprint(val)
	}
}

// MarshalJSON writes the payload as a JSON object preserving key order.
func (d FormData) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range d {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a flat JSON object. Nested objects and arrays are
// rejected with ErrUnsupportedFormValue; null values are dropped.
func (d *FormData) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("form data must be a JSON object")
	}

	out := FormData{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("form data key must be a string")
		}

		valTok, err := dec.Token()
		if err != nil {
			return err
		}
		switch v := valTok.(type) {
		case json.Delim:
			return fmt.Errorf("field %q: %w", key, ErrUnsupportedFormValue)
		case nil:
			continue
		case string, bool, json.Number:
			out.Set(key, v)
		default:
			return fmt.Errorf("field %q: %w", key, ErrUnsupportedFormValue)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*d = out
	return nil
}

// Scan implements sql.Scanner. Malformed stored payloads read back empty.
func (d *FormData) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*d = FormData{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scanning FormData: unsupported type %T", src)
	}

	var out FormData
	if err := out.UnmarshalJSON(raw); err != nil {
		*d = FormData{}
		return nil
	}
	*d = out
	return nil
}

// Value implements driver.Valuer.
func (d FormData) Value() (driver.Value, error) {
	b, err := d.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encoding FormData: %w", err)
	}
	return string(b), nil
}
