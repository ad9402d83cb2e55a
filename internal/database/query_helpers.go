// Brandlens - Multi-Tenant Marketing Analytics Dashboard
// Copyright 2026 Brandlens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/brandlens/brandlens

package database

import "strings"

// buildInClause returns n comma-separated placeholders for an IN clause.
// Avoids N+1 lookups: one bulk query instead of one per record.
func buildInClause(n int) string {
	if n <= 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(n * 2)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
	}
	return b.String()
}

// buildValueTuples returns n comma-separated placeholder tuples of width cols,
// e.g. "(?,?,?),(?,?,?)" for a multi-row INSERT.
func buildValueTuples(n, cols int) string {
	var tuple strings.Builder
	tuple.WriteByte('(')
	tuple.WriteString(buildInClause(cols))
	tuple.WriteByte(')')

	var b strings.Builder
	b.Grow(n * (tuple.Len() + 1))
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(tuple.String())
	}
	return b.String()
}
