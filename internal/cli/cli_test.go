package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/flatten/internal/utils"
)

type stubCopier struct {
	copied []string
}

func (copier *stubCopier) Copy(text string) error {
	copier.copied = append(copier.copied, text)
	return nil
}

func prepareProject(t *testing.T) string {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("USERPROFILE", os.Getenv("HOME"))
	projectRoot := t.TempDir()
	files := map[string]string{
		"a.py":               "print(1)",
		"b.md":               "hello",
		"test_data/c.md":     "skipped",
		"Sources/main.swift": "let x = 1",
	}
	for relativePath, content := range files {
		fullPath := filepath.Join(projectRoot, filepath.FromSlash(relativePath))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o600); err != nil {
			t.Fatalf("write %s: %v", relativePath, err)
		}
	}
	chdirForTest(t, projectRoot)
	return projectRoot
}

func executeCommand(t *testing.T, logger *zap.Logger, copier *stubCopier, arguments ...string) (string, error) {
	t.Helper()
	command := createRootCommand(logger, copier)
	var stdout bytes.Buffer
	command.SetOut(&stdout)
	command.SetErr(&stdout)
	command.SetArgs(arguments)
	err := command.Execute()
	return stdout.String(), err
}

func readDocument(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read document: %v", err)
	}
	return string(content)
}

func TestRootCommandDefaults(t *testing.T) {
	projectRoot := prepareProject(t)
	if _, err := executeCommand(t, nil, nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, filepath.Join(projectRoot, defaultOutputFileName))
	expected := "\n\n===== ./b.md =====\nhello" +
		"\n\n===== ./Sources/main.swift =====\nlet x = 1"
	if document != expected {
		t.Fatalf("unexpected document\nwant %q\ngot  %q", expected, document)
	}
}

func TestRootCommandFlagsOverrideSelection(t *testing.T) {
	prepareProject(t)
	outputPath := filepath.Join(t.TempDir(), "snapshot.txt")
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	_, err := executeCommand(t, logger, nil, "--ext", "py", "-e", "Sources", "-o", outputPath, "--summary")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if document := readDocument(t, outputPath); document != "\n\n===== ./a.py =====\nprint(1)" {
		t.Fatalf("unexpected document %q", document)
	}
	summaries := observed.FilterMessageSnippet("Summary: 1 file,").All()
	if len(summaries) != 1 {
		t.Fatalf("expected one summary log entry, got %v", observed.All())
	}
}

func TestRootCommandLocalConfiguration(t *testing.T) {
	projectRoot := prepareProject(t)
	configuration := "output: from_config.txt\nextensions: [swift]\n"
	if err := os.WriteFile(filepath.Join(projectRoot, utils.ConfigFileName), []byte(configuration), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := executeCommand(t, nil, nil); err != nil {
		t.Fatalf("execute: %v", err)
	}
	document := readDocument(t, filepath.Join(projectRoot, "from_config.txt"))
	if !strings.Contains(document, "main.swift") || strings.Contains(document, "b.md") {
		t.Fatalf("configuration not applied, document %q", document)
	}
	if _, statErr := os.Stat(filepath.Join(projectRoot, defaultOutputFileName)); !os.IsNotExist(statErr) {
		t.Fatalf("expected default output to be absent, stat error %v", statErr)
	}
}

func TestRootCommandCopiesDocument(t *testing.T) {
	prepareProject(t)
	outputPath := filepath.Join(t.TempDir(), "snapshot.txt")
	copier := &stubCopier{}
	if _, err := executeCommand(t, nil, copier, "--ext", ".md", "-o", outputPath, "--copy"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(copier.copied) != 1 || copier.copied[0] != "\n\n===== ./b.md =====\nhello" {
		t.Fatalf("unexpected clipboard content %q", copier.copied)
	}
}

func TestRootCommandPositionalRoot(t *testing.T) {
	projectRoot := prepareProject(t)
	chdirForTest(t, t.TempDir())
	outputPath := filepath.Join(t.TempDir(), "snapshot.txt")
	if _, err := executeCommand(t, nil, nil, projectRoot, "--ext", "md", "-o", outputPath); err != nil {
		t.Fatalf("execute: %v", err)
	}
	expected := "\n\n===== " + filepath.Join(projectRoot, "b.md") + " =====\nhello"
	if document := readDocument(t, outputPath); document != expected {
		t.Fatalf("unexpected document %q", document)
	}
}

func TestRootCommandRejectsInvalidInput(t *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		errorPart string
	}{
		{name: "unknown_decode", arguments: []string{"--decode", "latin1"}, errorPart: "latin1"},
		{name: "missing_root", arguments: []string{"absent"}, errorPart: "does not exist"},
		{name: "file_root", arguments: []string{"b.md"}, errorPart: "not a directory"},
		{name: "too_many_roots", arguments: []string{".", "Sources"}, errorPart: "accepts at most 1 arg"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			projectRoot := prepareProject(t)
			_, err := executeCommand(t, nil, nil, testCase.arguments...)
			if err == nil || !strings.Contains(err.Error(), testCase.errorPart) {
				t.Fatalf("expected error containing %q, got %v", testCase.errorPart, err)
			}
			if _, statErr := os.Stat(filepath.Join(projectRoot, defaultOutputFileName)); !os.IsNotExist(statErr) {
				t.Fatalf("expected no output document, stat error %v", statErr)
			}
		})
	}
}

func TestInitCommandWritesLocalConfiguration(t *testing.T) {
	projectRoot := prepareProject(t)
	output, err := executeCommand(t, nil, nil, "init")
	if err != nil {
		t.Fatalf("execute init: %v", err)
	}
	configurationPath := filepath.Join(projectRoot, utils.ConfigFileName)
	if !strings.Contains(output, configurationPath) {
		t.Fatalf("expected written path in output, got %q", output)
	}
	if _, err := executeCommand(t, nil, nil, "init"); err == nil {
		t.Fatalf("expected second init without --force to fail")
	}
	if _, err := executeCommand(t, nil, nil, "init", "--force"); err != nil {
		t.Fatalf("execute init --force: %v", err)
	}
}
