// Copyright 2026 KrakLabs
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package pipeline

import "strings"

// pathGlobTransform turns a shell-glob-ish path pattern into a regular
// expression (grounded on transforms.rs's path_glob_transform): `()|.` are
// escaped, `**` becomes `.*`, a lone `*` becomes `[^/]*`, `?` becomes `.`,
// and `{a,b,c}` becomes an alternation `(a|b|c)`.
func pathGlobTransform(pattern string) string {
	var out strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		c := runes[i]
		switch c {
		case '(', ')', '|', '.':
			out.WriteByte('\\')
			out.WriteRune(c)
		case '*':
			if i+1 < len(runes) && runes[i+1] == '*' {
				out.WriteString(".*")
				i++
			} else {
				out.WriteString("[^/]*")
			}
		case '?':
			out.WriteByte('.')
		case '{':
			end := i + 1
			for end < len(runes) && runes[end] != '}' {
				end++
			}
			if end >= len(runes) {
				out.WriteRune(c)
				continue
			}
			alts := strings.Split(string(runes[i+1:end]), ",")
			out.WriteByte('(')
			out.WriteString(strings.Join(alts, "|"))
			out.WriteByte(')')
			i = end
		default:
			out.WriteRune(c)
		}
	}
	return out.String()
}
