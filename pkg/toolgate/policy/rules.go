// Package policy – rules.go parses allow/block rule strings into a matchable
// form. Rules use the tool-registration convention `toolName(prefix)`: a bare
// tool name allows or blocks the whole tool class, and `toolName(prefix)`
// applies to commands whose normalized text starts with prefix at a token
// boundary. The rule format is owned by the surrounding tool-registration
// layer; this package only consumes it.
package policy

import "strings"

// ShellToolNames are the registered names of the shell-execution tool. Both
// the current name and the legacy alias are honored so existing settings
// files keep working.
var ShellToolNames = []string{"run_shell_command", "ShellTool"}

// Rules is the matchable form of the configured allow and block lists.
// Prefixes are stored whitespace-normalized; matching is literal text, never
// a pattern language.
type Rules struct {
	// AllowAll is true when a bare shell-tool wildcard appears in the
	// allow configuration: every command passes once the block list has
	// cleared it.
	AllowAll bool

	// BlockAll is true when a bare shell-tool wildcard appears in the
	// block configuration: the whole shell tool class is disabled.
	BlockAll bool

	// AllowPrefixes and BlockPrefixes hold the extracted command prefixes.
	AllowPrefixes []string
	BlockPrefixes []string
}

// ExtractRules builds Rules from the raw coreTools (allow) and excludeTools
// (block) configuration lists. Entries that do not reference the shell tool
// are ignored here; they belong to other tools' gateways.
func ExtractRules(coreTools, excludeTools []string) Rules {
	var r Rules
	for _, entry := range coreTools {
		wildcard, prefix, ok := parseShellRule(entry)
		if !ok {
			continue
		}
		if wildcard {
			r.AllowAll = true
			continue
		}
		r.AllowPrefixes = append(r.AllowPrefixes, prefix)
	}
	for _, entry := range excludeTools {
		wildcard, prefix, ok := parseShellRule(entry)
		if !ok {
			continue
		}
		if wildcard {
			r.BlockAll = true
			continue
		}
		r.BlockPrefixes = append(r.BlockPrefixes, prefix)
	}
	return r
}

// parseShellRule matches a rule entry against the known shell tool names.
// Returns wildcard=true for a bare tool name, otherwise the extracted,
// normalized prefix. ok is false when the entry targets a different tool.
func parseShellRule(entry string) (wildcard bool, prefix string, ok bool) {
	entry = strings.TrimSpace(entry)
	for _, tool := range ShellToolNames {
		if entry == tool {
			return true, "", true
		}
		if strings.HasPrefix(entry, tool+"(") && strings.HasSuffix(entry, ")") {
			inner := entry[len(tool)+1 : len(entry)-1]
			inner = Normalize(inner)
			if inner == "" {
				// An empty prefix would match everything; treat it
				// as the wildcard it effectively is.
				return true, "", true
			}
			return false, inner, true
		}
	}
	return false, "", false
}

// Normalize collapses runs of whitespace to single spaces and trims the
// ends, so prefix matching is insensitive to incidental spacing.
func Normalize(command string) string {
	return strings.Join(strings.Fields(command), " ")
}

// IsPrefixedBy reports whether a normalized command starts with the given
// rule prefix at a token boundary: the command is exactly the prefix, or the
// prefix is followed by a space. Prefixes are literal text — a rule
// containing regex metacharacters matches those characters verbatim.
func IsPrefixedBy(command, prefix string) bool {
	if !strings.HasPrefix(command, prefix) {
		return false
	}
	return len(command) == len(prefix) || command[len(prefix)] == ' '
}

// matchesAny reports whether the command matches any of the prefixes.
func matchesAny(command string, prefixes []string) bool {
	for _, p := range prefixes {
		if IsPrefixedBy(command, p) {
			return true
		}
	}
	return false
}
