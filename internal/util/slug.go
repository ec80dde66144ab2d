// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package util provides small helpers shared across packages: slugs,
// nullable column conversion, client addresses and safe paths.
package util

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	// slugDisallowed matches every run of characters outside [A-Za-z0-9-].
	slugDisallowed = regexp.MustCompile(`[^A-Za-z0-9-]+`)
	// multipleHyphens matches runs of hyphens.
	multipleHyphens = regexp.MustCompile(`-{2,}`)
)

// Slugify converts s to a URL slug: each run of characters outside
// [A-Za-z0-9-] becomes a single hyphen, hyphen runs collapse, the result is
// lower-cased and leading and trailing hyphens are trimmed. Non-ASCII letters
// are not transliterated. Input is composed to NFC first so a decomposed
// "é" (e + U+0301) is replaced whole like the precomposed one.
func Slugify(s string) string {
	result := slugDisallowed.ReplaceAllString(norm.NFC.String(s), "-")
	result = multipleHyphens.ReplaceAllString(result, "-")
	result = strings.ToLower(result)
	return strings.Trim(result, "-")
}

// SlugCandidate returns the n-th probe for base: base itself for n == 0,
// otherwise base-n.
func SlugCandidate(base string, n int) string {
	if n == 0 {
		return base
	}
	return base + "-" + strconv.Itoa(n)
}

// IsNumericID reports whether s is a positive decimal id rather than a slug.
func IsNumericID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
