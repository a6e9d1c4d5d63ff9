// Package pathguard – validator.go confines file access to a workspace root.
// Validate canonicalizes a requested path against the root and rejects
// anything that escapes it: traversal sequences, null bytes, encoded
// look-alikes, and symlinks whose targets point outside. ValidateRead and
// ValidateWrite layer mode-specific checks on top.
package pathguard

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// ErrOutsideWorkspace is wrapped into every security rejection — traversal
// syntax, containment failures, symlink escapes, null bytes — so callers can
// distinguish escapes from plain I/O and validation errors.
var ErrOutsideWorkspace = errors.New("path is outside the workspace root")

// suspiciousPatterns rejects paths before any filesystem access. These catch
// raw traversal plus the encoded forms a later decoding layer could expand
// back into one.
var suspiciousPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(^|[/\\])\.\.([/\\]|$)`), // parent-directory hop
	regexp.MustCompile(`^~`),                     // home expansion
	regexp.MustCompile(`\$\{?[A-Za-z_]`),         // env-var syntax
	regexp.MustCompile(`%2[eE]`),                 // percent-encoded dot
	regexp.MustCompile(`%2[fF]`),                 // percent-encoded slash
	regexp.MustCompile(`%5[cC]`),                 // percent-encoded backslash
	regexp.MustCompile(`\\x2[eEfF]`),             // hex-escaped dot/slash
}

// Validate canonicalizes path against root and returns the absolute,
// symlink-resolved location it refers to. A relative path is interpreted
// relative to root. Any form of escape yields an error wrapping
// ErrOutsideWorkspace; the returned path is empty on error.
func Validate(path, root string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", errors.New("path is empty")
	}
	if strings.ContainsRune(path, 0) {
		return "", fmt.Errorf("path contains a null byte: %w", ErrOutsideWorkspace)
	}
	for _, pat := range suspiciousPatterns {
		if pat.MatchString(path) {
			return "", fmt.Errorf("path %q contains a forbidden sequence: %w", path, ErrOutsideWorkspace)
		}
	}

	canonRoot, err := canonicalRoot(root)
	if err != nil {
		return "", err
	}

	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(canonRoot, abs)
	}
	abs = filepath.Clean(abs)

	if !contains(canonRoot, abs) {
		return "", fmt.Errorf("path %q resolves outside %q: %w", path, canonRoot, ErrOutsideWorkspace)
	}

	// A lexically-contained path can still escape through a symlink, so the
	// real location gets a second containment check. Nonexistent targets
	// (files about to be created) resolve as far as the deepest existing
	// ancestor.
	real, err := resolveExisting(abs)
	if err != nil {
		return "", fmt.Errorf("resolving %q: %w", path, err)
	}
	if !contains(canonRoot, real) {
		return "", fmt.Errorf("path %q points to %q outside the workspace: %w", path, real, ErrOutsideWorkspace)
	}
	return real, nil
}

// ValidateRead validates the path for reading: it must exist and be a
// regular file.
func ValidateRead(path, root string) (string, error) {
	resolved, err := Validate(path, root)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file does not exist: %s", resolved)
		}
		return "", fmt.Errorf("stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", resolved)
	}
	if info.Mode().Perm()&0o444 == 0 {
		return "", fmt.Errorf("file is not readable: %s", resolved)
	}
	return resolved, nil
}

// ValidateWrite validates the path for writing or creation: its parent
// directory must exist inside the workspace, and an existing target must be
// a writable regular file.
func ValidateWrite(path, root string) (string, error) {
	resolved, err := Validate(path, root)
	if err != nil {
		return "", err
	}

	parent := filepath.Dir(resolved)
	pinfo, err := os.Stat(parent)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("parent directory does not exist: %s", parent)
		}
		return "", fmt.Errorf("stat %s: %w", parent, err)
	}
	if !pinfo.IsDir() {
		return "", fmt.Errorf("parent %s is not a directory", parent)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		if os.IsNotExist(err) {
			return resolved, nil // creating a new file
		}
		return "", fmt.Errorf("stat %s: %w", resolved, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory, not a file", resolved)
	}
	if info.Mode().Perm()&0o222 == 0 {
		return "", fmt.Errorf("file is not writable: %s", resolved)
	}
	return resolved, nil
}

// canonicalRoot makes the workspace root absolute and symlink-resolved so
// containment checks compare like with like. A root that does not exist yet
// falls back to its lexical absolute form.
func canonicalRoot(root string) (string, error) {
	if strings.TrimSpace(root) == "" {
		return "", errors.New("workspace root is empty")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return filepath.Clean(abs), nil
		}
		return "", fmt.Errorf("resolving workspace root: %w", err)
	}
	return real, nil
}

// contains reports whether candidate is root itself or lies underneath it.
// The separator-suffixed comparison keeps /workspace-evil from matching
// /workspace.
func contains(root, candidate string) bool {
	if candidate == root {
		return true
	}
	return strings.HasPrefix(candidate, root+string(filepath.Separator))
}

// resolveExisting resolves symlinks along the deepest existing prefix of
// path and rejoins the nonexistent remainder. os.Root would confine opens
// but cannot pre-validate paths for files that do not exist yet.
func resolveExisting(path string) (string, error) {
	remainder := ""
	current := path
	for {
		real, err := filepath.EvalSymlinks(current)
		if err == nil {
			return filepath.Clean(filepath.Join(real, remainder)), nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no existing ancestor for %s", path)
		}
		remainder = filepath.Join(filepath.Base(current), remainder)
		current = parent
	}
}
