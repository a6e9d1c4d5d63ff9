// Package shell – split.go implements quote-aware splitting of a raw shell
// command string into its individual sub-commands, and extraction of the
// leading executable name from a sub-command.
//
// The splitter is deliberately not a full shell grammar: it only needs to
// understand enough quoting to find the real top-level separators. Anything
// more exotic is handled by the substitution detector, which rejects the
// command outright before splitting matters.
package shell

import (
	"regexp"
	"strings"
)

// Split breaks a raw command string into the sub-commands joined by the
// shell list operators `;`, `&&`, `||`, `&` and `|`. Separators inside
// single or double quotes are not split points, and a backslash outside
// single quotes escapes the following character.
//
// An unterminated quote is not an error: the remainder of the string is
// treated as quoted content. That is the conservative reading — a separator
// inside an apparently-open quote must not be treated as a real separator.
func Split(command string) []string {
	var parts []string
	var buf strings.Builder

	flush := func() {
		if s := strings.TrimSpace(buf.String()); s != "" {
			parts = append(parts, s)
		}
		buf.Reset()
	}

	inSingle := false
	inDouble := false

	for i := 0; i < len(command); i++ {
		ch := command[i]

		// Backslash escapes the next character outside single quotes.
		// Both characters are copied verbatim.
		if ch == '\\' && !inSingle && i+1 < len(command) {
			buf.WriteByte(ch)
			buf.WriteByte(command[i+1])
			i++
			continue
		}

		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			buf.WriteByte(ch)
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			buf.WriteByte(ch)
			continue
		}

		if !inSingle && !inDouble {
			if ch == '&' && i+1 < len(command) && command[i+1] == '&' {
				flush()
				i++
				continue
			}
			if ch == '|' && i+1 < len(command) && command[i+1] == '|' {
				flush()
				i++
				continue
			}
			if ch == ';' || ch == '&' || ch == '|' {
				flush()
				continue
			}
		}

		buf.WriteByte(ch)
	}

	flush()
	return parts
}

var (
	// Leading word forms, tried in order: fully double-quoted, fully
	// single-quoted, then a bare whitespace-delimited token.
	rootDoubleQuoted = regexp.MustCompile(`^"([^"]+)"`)
	rootSingleQuoted = regexp.MustCompile(`^'([^']+)'`)
	rootBareWord     = regexp.MustCompile(`^\S+`)
)

// CommandRoot returns the leading executable name of a sub-command: the
// first word with any surrounding quotes removed and any directory
// components stripped, so that rules keyed on bare names ("git", "rm")
// still match invocations like `"/usr/bin/git" status` or `'git' status`.
// The second return value is false when the sub-command is empty.
func CommandRoot(subCommand string) (string, bool) {
	s := strings.TrimSpace(subCommand)
	if s == "" {
		return "", false
	}

	var word string
	if m := rootDoubleQuoted.FindStringSubmatch(s); m != nil {
		word = m[1]
	} else if m := rootSingleQuoted.FindStringSubmatch(s); m != nil {
		word = m[1]
	} else if m := rootBareWord.FindString(s); m != "" {
		word = m
	}
	if word == "" {
		return "", false
	}

	// Keep only the final path segment, accepting both separators since
	// agent-issued commands may carry Windows-style paths.
	if idx := strings.LastIndexAny(word, `/\`); idx >= 0 {
		word = word[idx+1:]
	}
	if word == "" {
		return "", false
	}
	return word, true
}
