// Package policy – resolver.go classifies a multi-command string against the
// configured block and allow rules. The outcome is a Verdict: full allow, a
// hard denial (substitution detected or an explicit block-rule hit — never
// user-overridable), or a soft denial (allow-list miss — the caller may offer
// one-time interactive confirmation).
package policy

import (
	"fmt"

	"toolgate/pkg/toolgate/shell"
)

// Denial reasons surfaced to the user. Substitution and wildcard-block hits
// are constant; prefix hits carry the offending command.
const (
	ReasonSubstitution = "command substitution using $(), <(), or backticks is not allowed for security reasons"
	ReasonShellBlocked = "shell tool is globally disabled in configuration"
)

// Verdict is the result of a permission check. It is constructed fresh per
// call and never mutated afterwards.
type Verdict struct {
	// AllAllowed is true when every sub-command passed.
	AllAllowed bool

	// DisallowedCommands lists the sub-commands that were rejected. For
	// hard denials triggered before tokenization it carries the whole
	// command string.
	DisallowedCommands []string

	// BlockReason explains the rejection, suitable for showing to the user.
	BlockReason string

	// IsHardDenial distinguishes non-negotiable rejections (substitution,
	// block-list hits) from allow-list misses the user may confirm through.
	IsHardDenial bool
}

func allow() Verdict {
	return Verdict{AllAllowed: true}
}

func hardDeny(reason string, commands ...string) Verdict {
	return Verdict{
		DisallowedCommands: commands,
		BlockReason:        reason,
		IsHardDenial:       true,
	}
}

func softDeny(reason string, commands []string) Verdict {
	return Verdict{
		DisallowedCommands: commands,
		BlockReason:        reason,
	}
}

// CheckCommandPermissions evaluates a raw command string against the
// configured rules and the optional session allow-list.
//
// Priority order:
//
//  1. Substitution/injection detection on the raw string — hard denial.
//  2. Shell-tool wildcard in the block configuration — hard denial.
//  3. Block-rule prefix match on any sub-command — hard denial.
//  4. Shell-tool wildcard in the allow configuration — full allow.
//  5. With a session allow-list (default-deny mode): every sub-command must
//     match the session list or a global allow prefix; misses accumulate
//     into a soft denial. Without one (default-allow mode): a non-empty
//     global allow list must cover every sub-command; an empty one admits
//     whatever the block list already cleared.
//
// A session list passed as nil selects default-allow mode.
func CheckCommandPermissions(command string, rules Rules, session *SessionAllowList) Verdict {
	// The substitution check is absolute: it sees the raw string because
	// tokenization could be confused by the very constructs it hunts.
	if shell.ContainsCommandSubstitution(command) {
		return hardDeny(ReasonSubstitution, command)
	}

	if rules.BlockAll {
		return hardDeny(ReasonShellBlocked, command)
	}

	subCommands := make([]string, 0, 4)
	for _, sub := range shell.Split(command) {
		subCommands = append(subCommands, Normalize(sub))
	}

	// Block rules outrank everything below, including session approvals.
	for _, sub := range subCommands {
		if matchesAny(sub, rules.BlockPrefixes) {
			return hardDeny(fmt.Sprintf("command %q is blocked by configuration", sub), sub)
		}
	}

	if rules.AllowAll {
		return allow()
	}

	var disallowed []string
	if session != nil {
		// Default-deny: unknown commands wait for explicit approval.
		for _, sub := range subCommands {
			if session.Matches(sub) || matchesAny(sub, rules.AllowPrefixes) {
				continue
			}
			disallowed = append(disallowed, sub)
		}
	} else if len(rules.AllowPrefixes) > 0 {
		// Default-allow with an explicit allow list: the list is exhaustive.
		for _, sub := range subCommands {
			if !matchesAny(sub, rules.AllowPrefixes) {
				disallowed = append(disallowed, sub)
			}
		}
	}

	if len(disallowed) > 0 {
		return softDeny(
			fmt.Sprintf("command(s) not on any allow-list: %s", joinQuoted(disallowed)),
			disallowed,
		)
	}
	return allow()
}

func joinQuoted(commands []string) string {
	out := ""
	for i, c := range commands {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", c)
	}
	return out
}
