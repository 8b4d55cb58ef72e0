package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/mowa/internal/textnorm/abbrev"
	"github.com/MrWong99/mowa/pkg/corpus/textfile"
)

func runCLI(t *testing.T, stdin string, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	code := run(context.Background(), args, strings.NewReader(stdin), &out)
	return code, out.String()
}

func TestNormalize_Stdin(t *testing.T) {
	t.Parallel()

	code, out := runCLI(t, "mam 5 kotów\nXX wiek\n", "normalize")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	want := "mam pięć kotów\ndwadzieścia wiek\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestNormalize_StdinOffsets(t *testing.T) {
	t.Parallel()

	off := filepath.Join(t.TempDir(), "out.normoff")
	code, out := runCLI(t, "u1 mam 5 kotów\n", "normalize", "--ids", "--offsets", off)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if out != "u1\tmam pięć kotów\n" {
		t.Errorf("text = %q", out)
	}
	data, err := os.ReadFile(off)
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "u1\t[[0, 3], [4, 5], [6, 11]]\n" {
		t.Errorf("offsets = %q", got)
	}
}

func TestNormalize_Files(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	input := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(input, []byte("godz. 12:04\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if code, _ := runCLI(t, "", "normalize", input); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	textPath, offPath := textfile.Paths(input)
	text, err := os.ReadFile(textPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(text), "godzina dwanaście") {
		t.Errorf("text = %q", text)
	}
	if _, err := os.Stat(offPath); err != nil {
		t.Errorf("offsets file: %v", err)
	}

	// A second run without --force leaves the existing output alone.
	if err := os.WriteFile(textPath, []byte("keep\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if code, _ := runCLI(t, "", "normalize", input); code != 0 {
		t.Fatalf("rerun exit code = %d", code)
	}
	if data, _ := os.ReadFile(textPath); string(data) != "keep\n" {
		t.Errorf("output overwritten without --force: %q", data)
	}
	if code, _ := runCLI(t, "", "normalize", "--force", input); code != 0 {
		t.Fatalf("forced exit code = %d", code)
	}
	if data, _ := os.ReadFile(textPath); string(data) == "keep\n" {
		t.Error("--force did not overwrite output")
	}
}

func TestNormalize_BadPolicy(t *testing.T) {
	t.Parallel()

	if code, _ := runCLI(t, "x\n", "normalize", "--on-mismatch", "explode"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestSpell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"spell", "2000"}, "dwa tysiące\n"},
		{[]string{"spell", "7", "12"}, "siedem\ndwanaście\n"},
		{[]string{"spell", "--roman", "XX"}, "dwadzieścia\n"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			t.Parallel()
			code, out := runCLI(t, "", tt.args...)
			if code != 0 {
				t.Fatalf("exit code = %d", code)
			}
			if out != tt.want {
				t.Errorf("output = %q, want %q", out, tt.want)
			}
		})
	}
}

func TestSpell_NoDigits(t *testing.T) {
	t.Parallel()

	if code, _ := runCLI(t, "", "spell", "abc"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}

func TestAbbrev_JSON(t *testing.T) {
	t.Parallel()

	code, out := runCLI(t, "mgr. kowalski i mgr. nowak\nopłata dla ZUSu\n", "abbrev", "--json")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var cands []abbrev.Candidate
	if err := json.Unmarshal([]byte(out), &cands); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(cands) != 2 || cands[0].Word != "mgr" || cands[0].Count != 2 {
		t.Errorf("candidates = %+v", cands)
	}
}

func TestAbbrev_Top(t *testing.T) {
	t.Parallel()

	code, out := runCLI(t, "mgr. kowalski i mgr. nowak\nopłata dla ZUSu\n", "abbrev", "--top", "1")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 || !strings.Contains(lines[0], "mgr") {
		t.Errorf("output = %q", out)
	}
}

func TestVersion(t *testing.T) {
	t.Parallel()

	code, out := runCLI(t, "", "version")
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.HasPrefix(out, "mowa "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	if code, _ := runCLI(t, "", "frobnicate"); code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
}

func TestMissingConfig(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "nope.yaml")
	if code, _ := runCLI(t, "", "-c", missing, "spell", "1"); code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
}
