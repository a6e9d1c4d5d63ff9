package shell

import (
	"reflect"
	"testing"
)

func TestSplit_Operators(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{"and chain", "git status && npm test", []string{"git status", "npm test"}},
		{"or chain", "make build || make clean", []string{"make build", "make clean"}},
		{"semicolon", "ls; pwd; whoami", []string{"ls", "pwd", "whoami"}},
		{"pipe", "cat file | grep foo | wc -l", []string{"cat file", "grep foo", "wc -l"}},
		{"background", "sleep 5 & echo done", []string{"sleep 5", "echo done"}},
		{"mixed", "a && b; c | d || e", []string{"a", "b", "c", "d", "e"}},
		{"single command", "git status", []string{"git status"}},
		{"empty string", "", nil},
		{"only separators", " ; ; && ", nil},
		{"surrounding whitespace", "  ls -la  ;  pwd  ", []string{"ls -la", "pwd"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.command)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestSplit_Quoting(t *testing.T) {
	tests := []struct {
		name    string
		command string
		want    []string
	}{
		{
			"semicolon in single quotes",
			"echo 'a;b' ; echo c",
			[]string{"echo 'a;b'", "echo c"},
		},
		{
			"operators in double quotes",
			`echo "a && b" && echo c`,
			[]string{`echo "a && b"`, "echo c"},
		},
		{
			"pipe in single quotes",
			"grep 'foo|bar' file",
			[]string{"grep 'foo|bar' file"},
		},
		{
			"escaped semicolon",
			`echo a\;b; echo c`,
			[]string{`echo a\;b`, "echo c"},
		},
		{
			"double quote inside single quotes",
			`echo 'say "hi"; bye' ; pwd`,
			[]string{`echo 'say "hi"; bye'`, "pwd"},
		},
		{
			"single quote inside double quotes",
			`echo "it's fine; really" ; pwd`,
			[]string{`echo "it's fine; really"`, "pwd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.command)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Split(%q) = %v, want %v", tt.command, got, tt.want)
			}
		})
	}
}

func TestSplit_UnterminatedQuote(t *testing.T) {
	// An open quote swallows the rest of the string: the separator inside
	// it must not split, and Split must not fail.
	got := Split("echo 'unterminated; rm -rf /")
	want := []string{"echo 'unterminated; rm -rf /"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}

	got = Split(`echo "still open && ls`)
	want = []string{`echo "still open && ls`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Split() = %v, want %v", got, want)
	}
}

func TestCommandRoot(t *testing.T) {
	tests := []struct {
		name string
		sub  string
		want string
		ok   bool
	}{
		{"bare command", "git status", "git", true},
		{"path qualified", "/usr/bin/git status", "git", true},
		{"double quoted path", `"/usr/bin/git" status`, "git", true},
		{"single quoted", "'git' status", "git", true},
		{"relative path", "./scripts/build.sh --fast", "build.sh", true},
		{"windows path", `C:\tools\git.exe status`, "git.exe", true},
		{"no arguments", "ls", "ls", true},
		{"leading whitespace", "   npm   test", "npm", true},
		{"empty", "", "", false},
		{"whitespace only", "   ", "", false},
		{"bare slash", "/", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CommandRoot(tt.sub)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CommandRoot(%q) = (%q, %v), want (%q, %v)", tt.sub, got, ok, tt.want, tt.ok)
			}
		})
	}
}
