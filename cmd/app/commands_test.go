package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/posecontact/internal/apperr"
	"github.com/starford/posecontact/internal/schema"
	"github.com/starford/posecontact/internal/testutil"
)

func quiet() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func bundled(t *testing.T) *schema.Schema {
	t.Helper()
	sch, err := schema.Bundled()
	require.NoError(t, err)
	return sch
}

func TestValidatePaths_AllValid(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDoc(t, dir, "a.yaml", testutil.ValidYAML)
	testutil.WriteDoc(t, dir, "b.json", `{"relations": []}`)

	var out bytes.Buffer
	err := validatePaths(context.Background(), &out, []string{dir}, bundled(t), 2, quiet())
	require.NoError(t, err)
	assert.Equal(t, "All documents are valid.\n", out.String())
}

func TestValidatePaths_Failure(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDoc(t, dir, "a.yaml", testutil.ValidYAML)
	testutil.WriteDoc(t, dir, "b.yaml", testutil.DanglingYAML)

	var out bytes.Buffer
	err := validatePaths(context.Background(), &out, []string{dir}, bundled(t), 0, quiet())
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Equal(t,
		"Validation failed:\n- b.yaml: /relations/0/object/object: unknown object id 'ghost'\n",
		out.String())
}

func TestValidatePaths_SingleFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDoc(t, dir, "b.yaml", testutil.DanglingYAML)
	file := filepath.Join(dir, "b.yaml")

	var out bytes.Buffer
	err := validatePaths(context.Background(), &out, []string{file}, bundled(t), 1, quiet())
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)
	assert.Contains(t, out.String(), "- "+file+": /relations/0/object/object")
}

func TestValidatePaths_MissingPathReportedWithOthers(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDoc(t, dir, "a.yaml", testutil.ValidYAML)
	testutil.WriteDoc(t, dir, "b.yaml", testutil.DanglingYAML)
	missing := filepath.Join(t.TempDir(), "nope.yaml")

	var out bytes.Buffer
	err := validatePaths(context.Background(), &out, []string{missing, dir}, bundled(t), 1, quiet())
	assert.ErrorIs(t, err, apperr.ErrValidationFailed)

	report := out.String()
	assert.True(t, strings.HasPrefix(report, "Validation failed:\n"), report)
	assert.Contains(t, report, "- "+missing+": /: failed to load document: ")
	assert.Contains(t, report, "- "+filepath.Join(dir, "b.yaml")+": /relations/0/object/object: unknown object id 'ghost'")
	assert.NotContains(t, report, "a.yaml")
}

func TestValidateFile_MissingFileIsRootIssue(t *testing.T) {
	issues, err := validateFile(filepath.Join(t.TempDir(), "missing.json"), bundled(t))
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, "/", issues[0].Path)
	assert.True(t, strings.HasPrefix(issues[0].Message, "failed to load document: "), issues[0].Message)
}

func TestNarrateCommand_WritesFile(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteDoc(t, dir, "scene.yaml", testutil.ValidYAML)
	out := filepath.Join(dir, "out", "scene.txt")

	cmd := narrateCommand()
	err := cmd.Run(context.Background(), []string{"narrate", "--out", out, filepath.Join(dir, "scene.yaml")})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "- right hand of Alice (alice) is gripping Handle (handle) on Cup (cup), role: grip.")
}

func TestBundledExamplesAreValid(t *testing.T) {
	var out bytes.Buffer
	err := validatePaths(context.Background(), &out, []string{filepath.Join("..", "..", "examples")}, bundled(t), 0, quiet())
	require.NoError(t, err, out.String())
	assert.Equal(t, "All documents are valid.\n", out.String())
}
