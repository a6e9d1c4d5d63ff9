// Package gateway – gateway.go is the front door: it binds the configured
// rules, the session allow-list, the path validator, and the audit trail into
// one object the CLI (or an embedding host) calls for every tool request.
package gateway

import (
	"errors"
	"log/slog"
	"sync"

	"toolgate/pkg/toolgate/audit"
	"toolgate/pkg/toolgate/config"
	"toolgate/pkg/toolgate/pathguard"
	"toolgate/pkg/toolgate/policy"

	"github.com/google/uuid"
)

// Gateway evaluates command and path requests against the active
// configuration. Rule state is swappable at runtime for config hot reload;
// the session allow-list survives swaps.
type Gateway struct {
	mu            sync.RWMutex
	rules         policy.Rules
	workspaceRoot string

	session  *policy.SessionAllowList
	recorder audit.Recorder
	logger   *slog.Logger

	// sessionID tags audit events from this gateway instance.
	sessionID string
}

// New builds a Gateway from the configuration. recorder may be nil, in which
// case decisions are logged but not persisted.
func New(cfg *config.Config, recorder audit.Recorder, logger *slog.Logger) *Gateway {
	if logger == nil {
		logger = slog.Default()
	}
	if recorder == nil {
		recorder = audit.NewLogRecorder(logger)
	}
	g := &Gateway{
		rules:         policy.ExtractRules(cfg.CoreTools, cfg.ExcludeTools),
		workspaceRoot: cfg.WorkspaceRoot,
		recorder:      recorder,
		logger:        logger.With("component", "gateway"),
		sessionID:     uuid.NewString(),
	}
	if cfg.DefaultDeny {
		g.session = policy.NewSessionAllowList()
	}
	return g
}

// SessionID returns the identifier tagged onto this gateway's audit events.
func (g *Gateway) SessionID() string {
	return g.sessionID
}

// Reload swaps in rules and workspace root from a fresh configuration.
// Session approvals are kept: the user granted them, not the config file.
// Switching to default-allow only drops a session list with no approvals.
func (g *Gateway) Reload(cfg *config.Config) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rules = policy.ExtractRules(cfg.CoreTools, cfg.ExcludeTools)
	g.workspaceRoot = cfg.WorkspaceRoot
	if cfg.DefaultDeny && g.session == nil {
		g.session = policy.NewSessionAllowList()
	} else if !cfg.DefaultDeny && g.session != nil && g.session.Len() == 0 {
		g.session = nil
	}
	g.logger.Info("gateway rules reloaded",
		"allow_prefixes", len(g.rules.AllowPrefixes),
		"block_prefixes", len(g.rules.BlockPrefixes),
		"default_deny", g.session != nil,
	)
}

// CheckCommand evaluates a shell command and records the decision.
func (g *Gateway) CheckCommand(command string) policy.Verdict {
	g.mu.RLock()
	rules, session := g.rules, g.session
	g.mu.RUnlock()

	verdict := policy.CheckCommandPermissions(command, rules, session)
	g.record(audit.KindCommand, command, decisionOf(verdict), verdict.BlockReason)
	return verdict
}

// ApproveCommand adds a prefix to the session allow-list after the user
// confirms a soft denial. The list is created on first approval when the
// configuration did not start one: a soft denial in default-allow mode means
// a non-empty allow list is in force, and tracking approvals alongside it is
// the same resolution the allow list already produces, plus the grant.
func (g *Gateway) ApproveCommand(prefix string) {
	g.mu.Lock()
	if g.session == nil {
		g.session = policy.NewSessionAllowList()
	}
	session := g.session
	g.mu.Unlock()

	session.Add(prefix)
	g.logger.Info("command approved for session", "prefix", prefix)
}

// CheckRead validates a path for reading, returning its canonical location.
func (g *Gateway) CheckRead(path string) (string, error) {
	g.mu.RLock()
	root := g.workspaceRoot
	g.mu.RUnlock()

	resolved, err := pathguard.ValidateRead(path, root)
	g.recordPath(audit.KindRead, path, err)
	return resolved, err
}

// CheckWrite validates a path for writing, returning its canonical location.
func (g *Gateway) CheckWrite(path string) (string, error) {
	g.mu.RLock()
	root := g.workspaceRoot
	g.mu.RUnlock()

	resolved, err := pathguard.ValidateWrite(path, root)
	g.recordPath(audit.KindWrite, path, err)
	return resolved, err
}

// CheckPath validates a path without mode-specific checks.
func (g *Gateway) CheckPath(path string) (string, error) {
	g.mu.RLock()
	root := g.workspaceRoot
	g.mu.RUnlock()

	resolved, err := pathguard.Validate(path, root)
	g.recordPath(audit.KindRead, path, err)
	return resolved, err
}

func (g *Gateway) record(kind audit.Kind, input string, decision audit.Decision, reason string) {
	g.recorder.Record(audit.NewEvent(g.sessionID, kind, input, decision, reason))
}

func (g *Gateway) recordPath(kind audit.Kind, path string, err error) {
	switch {
	case err == nil:
		g.record(kind, path, audit.DecisionAllowed, "")
	case errors.Is(err, pathguard.ErrOutsideWorkspace):
		// Escapes are hard: there is no confirm-through for a traversal
		// attempt.
		g.record(kind, path, audit.DecisionHardDenied, err.Error())
	default:
		g.record(kind, path, audit.DecisionValidationFailed, err.Error())
	}
}

func decisionOf(v policy.Verdict) audit.Decision {
	switch {
	case v.AllAllowed:
		return audit.DecisionAllowed
	case v.IsHardDenial:
		return audit.DecisionHardDenied
	default:
		return audit.DecisionSoftDenied
	}
}
