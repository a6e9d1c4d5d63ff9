// Package shell – substitution.go detects shell constructs that would cause
// a POSIX-like shell to expand or execute a sub-command embedded in the
// command line: $(...), backticks, ${...}, bare $VAR references, process
// substitution, and encoded/obfuscated variants.
//
// The detector is two-layered. A pattern pre-scan cheaply rejects the common
// cases and the encoded bypasses (hex/octal/unicode escapes) that a character
// walk cannot see. A stateful character walk that tracks quoting is the
// authoritative check: quoting subtleties (backticks are live inside double
// quotes but inert inside single quotes) make naive single-pass regexes
// bypassable. A positive result from either layer is final — callers treat it
// as a hard denial with no user override.
package shell

import (
	"regexp"
	"strings"
)

// rawPatterns run against the untouched command string. These constructs are
// dangerous regardless of quoting context, or only appear as obfuscation.
var rawPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$'`),               // ANSI-C quoting $'...'
	regexp.MustCompile(`\$\[`),              // legacy arithmetic $[...]
	regexp.MustCompile(`\$\{?IFS\}?`),       // $IFS / ${IFS} separator games
	regexp.MustCompile(`^\s*(eval|exec|source)\b`), // direct re-evaluation
	regexp.MustCompile(`^\s*\.\s`),          // POSIX dot-source
}

// livePatterns run against the command with single-quoted spans blanked out.
// Inside single quotes these constructs are inert, and rejecting them there
// would break legitimate commands like `git commit -m 'fix $(x)'`.
var livePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\$\(`),                  // command substitution / arithmetic
	regexp.MustCompile("`"),                     // backtick substitution
	regexp.MustCompile(`\$\{[^}]*\}`),           // parameter expansion
	regexp.MustCompile(`\$[a-zA-Z_][a-zA-Z0-9_]*`), // bare variable reference
	regexp.MustCompile(`[<>]\(`),                // process substitution
}

var (
	hexEscape     = regexp.MustCompile(`\\x[0-9a-fA-F]{2}`)
	octalEscape   = regexp.MustCompile(`\\[0-7]{3}`)
	unicodeEscape = regexp.MustCompile(`\\u[0-9a-fA-F]{4}`)
	base64Run     = regexp.MustCompile(`[A-Za-z0-9+/=]{20,}`)
)

// ContainsCommandSubstitution reports whether a raw, untokenized command
// string contains any construct that a shell would expand or execute as a
// sub-command. It must be called on the full string before tokenization;
// a true result short-circuits all further permission evaluation.
func ContainsCommandSubstitution(command string) bool {
	// Layer one: pattern pre-scan.
	for _, re := range rawPatterns {
		if re.MatchString(command) {
			return true
		}
	}
	blanked := blankSingleQuoted(command)
	for _, re := range livePatterns {
		if re.MatchString(blanked) {
			return true
		}
	}
	if ContainsEncodedCommands(command) {
		return true
	}

	// Layer two: the authoritative stateful walk.
	return hasLiveSubstitution(command)
}

// ContainsEncodedCommands flags escape sequences and decode-and-execute
// heuristics: hex (\xNN), octal (\NNN), unicode (\uNNNN) escapes, and any
// string carrying both a long base64-like run and the literal word "base64".
// These do not themselves contain $, backticks, or <( but decode to dangerous
// content at shell-execution time.
func ContainsEncodedCommands(command string) bool {
	if hexEscape.MatchString(command) ||
		octalEscape.MatchString(command) ||
		unicodeEscape.MatchString(command) {
		return true
	}
	if strings.Contains(strings.ToLower(command), "base64") && base64Run.MatchString(command) {
		return true
	}
	return false
}

// blankSingleQuoted replaces the content of single-quoted spans with spaces
// so that the live-construct patterns only see text the shell would actually
// interpret. Quote tracking mirrors Split: a single quote inside double
// quotes is literal, a backslash outside single quotes escapes the next
// character, and an unterminated quote blanks the rest of the string.
func blankSingleQuoted(command string) string {
	out := []byte(command)
	inSingle := false
	inDouble := false

	for i := 0; i < len(command); i++ {
		ch := command[i]
		if ch == '\\' && !inSingle && i+1 < len(command) {
			i++
			continue
		}
		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			out[i] = ' '
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			continue
		}
		if inSingle {
			out[i] = ' '
		}
	}
	return string(out)
}

// hasLiveSubstitution is the stateful scan. It walks the string tracking
// single-quote, double-quote, and backtick state, honoring backslash escapes
// outside single quotes, and reports the first construct the shell would
// execute:
//
//   - $( anywhere outside single quotes (live even inside double quotes)
//   - <( / >( outside quotes and backticks (inert inside double quotes)
//   - an opening backtick outside single quotes (live inside double quotes)
//   - $ followed by a letter, underscore, `[` or `{` outside single quotes
func hasLiveSubstitution(command string) bool {
	inSingle := false
	inDouble := false
	inBackticks := false

	for i := 0; i < len(command); i++ {
		ch := command[i]

		if ch == '\\' && !inSingle && i+1 < len(command) {
			i++
			continue
		}
		if ch == '\'' && !inDouble {
			inSingle = !inSingle
			continue
		}
		if ch == '"' && !inSingle {
			inDouble = !inDouble
			continue
		}
		if inSingle {
			continue
		}

		switch {
		case ch == '$' && i+1 < len(command) && command[i+1] == '(':
			return true

		case (ch == '<' || ch == '>') && i+1 < len(command) && command[i+1] == '(':
			if !inDouble && !inBackticks {
				return true
			}

		case ch == '`':
			entering := !inBackticks
			inBackticks = !inBackticks
			if entering {
				return true
			}

		case ch == '$' && i+1 < len(command) && isExpansionStart(command[i+1]):
			return true
		}
	}
	return false
}

// isExpansionStart reports whether c can begin a variable or brace expansion
// directly after an unquoted $.
func isExpansionStart(c byte) bool {
	return c == '_' || c == '{' || c == '[' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
