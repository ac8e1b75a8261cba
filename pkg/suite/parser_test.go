package suite

import (
	"errors"
	"strings"
	"testing"
)

func TestParse_SimpleTest(t *testing.T) {
	yaml := `
- open: "https://example.com/login"
- inputText:
    id: username
    text: bob
- click: "#submit"
- waitForTitle: Dashboard
`
	test, err := Parse([]byte(yaml), "Login/Valid.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(test.Steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(test.Steps))
	}

	open, ok := test.Steps[0].(*OpenStep)
	if !ok {
		t.Fatalf("expected OpenStep, got %T", test.Steps[0])
	}
	if open.URL != "https://example.com/login" {
		t.Errorf("expected url, got %q", open.URL)
	}

	input, ok := test.Steps[1].(*InputTextStep)
	if !ok {
		t.Fatalf("expected InputTextStep, got %T", test.Steps[1])
	}
	if input.ID != "username" || input.Text != "bob" {
		t.Errorf("expected id=username text=bob, got id=%q text=%q", input.ID, input.Text)
	}

	click, ok := test.Steps[2].(*ClickStep)
	if !ok {
		t.Fatalf("expected ClickStep, got %T", test.Steps[2])
	}
	if click.CSS != "#submit" {
		t.Errorf("expected css=#submit, got %q", click.CSS)
	}
	if click.Retries != DefaultRetries {
		t.Errorf("expected default retries %d, got %d", DefaultRetries, click.Retries)
	}

	wait, ok := test.Steps[3].(*WaitForTitleStep)
	if !ok {
		t.Fatalf("expected WaitForTitleStep, got %T", test.Steps[3])
	}
	if wait.Title != "Dashboard" {
		t.Errorf("expected title=Dashboard, got %q", wait.Title)
	}
	if wait.TimeoutMs != DefaultWaitTimeoutMs {
		t.Errorf("expected default timeout %d, got %d", DefaultWaitTimeoutMs, wait.TimeoutMs)
	}
}

func TestParse_WithConfig(t *testing.T) {
	yaml := `
name: Valid login
description: |
  Logs in with **valid** credentials.
url: https://example.com
tags:
  - smoke
  - login
env:
  USERNAME: bob
timeout: 5000
---
- assertVisible: ".welcome"
`
	test, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if test.Config.Name != "Valid login" {
		t.Errorf("expected name=Valid login, got %q", test.Config.Name)
	}
	if !strings.Contains(test.Config.Description, "**valid**") {
		t.Errorf("expected markdown description, got %q", test.Config.Description)
	}
	if len(test.Config.Tags) != 2 {
		t.Errorf("expected 2 tags, got %d", len(test.Config.Tags))
	}
	if test.Config.Env["USERNAME"] != "bob" {
		t.Errorf("expected env USERNAME=bob, got %q", test.Config.Env["USERNAME"])
	}
	if test.Config.Timeout != 5000 {
		t.Errorf("expected timeout=5000, got %d", test.Config.Timeout)
	}
	if len(test.Steps) != 1 {
		t.Errorf("expected 1 step, got %d", len(test.Steps))
	}
}

func TestParse_BlockScalarWithSeparator(t *testing.T) {
	yaml := `- runScript: |
    var a = 1;
    ---
    var b = 2;
- log: done
`
	test, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(test.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(test.Steps))
	}
	script := test.Steps[0].(*RunScriptStep)
	if !strings.Contains(script.Script, "---") {
		t.Errorf("expected separator kept inside block scalar, got %q", script.Script)
	}
}

func TestParse_AllStepTypes(t *testing.T) {
	yaml := `
- open: https://example.com
- click:
    xpath: //button[1]
    retries: 5
- inputText:
    css: input[name=q]
    text: hello
- clear: input[name=q]
- fillAutocomplete:
    id: city
    text: Berlin
- switchToFrame: 1
- switchToDefault
- assertVisible: "#ok"
- assertNotVisible: "#error"
- assertText:
    css: h1
    text: Welcome
    contains: true
- assertTitle: Home
- waitForVisible:
    css: ".done"
    timeout: 2000
- waitForTitle: Home
- evalScript:
    script: document.title
    saveAs: title
- takeScreenshot: home
- log: hello
- warn: careful
- fail: nope
- runScript: output.x = 1
- assertTrue: ${output.x == 1}
- defineVariables:
    USER: bob
- sleep: 100
`
	test, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []StepType{
		StepOpen, StepClick, StepInputText, StepClear, StepFillAutocomplete,
		StepSwitchToFrame, StepSwitchToDefault, StepAssertVisible, StepAssertNotVisible,
		StepAssertText, StepAssertTitle, StepWaitForVisible, StepWaitForTitle,
		StepEvalScript, StepTakeScreenshot, StepLog, StepWarn, StepFail,
		StepRunScript, StepAssertTrue, StepDefineVariables, StepSleep,
	}
	if len(test.Steps) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(test.Steps))
	}
	for i, st := range want {
		if test.Steps[i].Type() != st {
			t.Errorf("step %d: expected %s, got %s", i, st, test.Steps[i].Type())
		}
	}

	click := test.Steps[1].(*ClickStep)
	if click.XPath != "//button[1]" || click.Retries != 5 {
		t.Errorf("click: got xpath=%q retries=%d", click.XPath, click.Retries)
	}
	frame := test.Steps[5].(*SwitchToFrameStep)
	if frame.Index != 1 || frame.Retries != DefaultRetries {
		t.Errorf("switchToFrame: got index=%d retries=%d", frame.Index, frame.Retries)
	}
	assertText := test.Steps[9].(*AssertTextStep)
	if !assertText.Contains || assertText.Text != "Welcome" {
		t.Errorf("assertText: got %+v", assertText)
	}
	wait := test.Steps[11].(*WaitForVisibleStep)
	if wait.TimeoutMs != 2000 {
		t.Errorf("waitForVisible timeout: got %d, want 2000", wait.TimeoutMs)
	}
	eval := test.Steps[13].(*EvalScriptStep)
	if eval.SaveAs != "title" {
		t.Errorf("evalScript saveAs: got %q", eval.SaveAs)
	}
	vars := test.Steps[20].(*DefineVariablesStep)
	if vars.Env["USER"] != "bob" {
		t.Errorf("defineVariables: got %v", vars.Env)
	}
	sleep := test.Steps[21].(*SleepStep)
	if sleep.Ms != 100 {
		t.Errorf("sleep: got %d, want 100", sleep.Ms)
	}
}

func TestParse_OptionalAndLabel(t *testing.T) {
	yaml := `
- click:
    css: "#cookie-banner .close"
    optional: true
    label: Dismiss cookie banner
`
	test, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	step := test.Steps[0]
	if !step.IsOptional() {
		t.Error("expected optional step")
	}
	if step.Describe() != "Dismiss cookie banner" {
		t.Errorf("expected label as description, got %q", step.Describe())
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantMsg string
	}{
		{"empty file", "", "empty test file"},
		{"whitespace only", "\n  \n", "empty test file"},
		{"unknown step", "- tapOn: Login\n", "unknown step type"},
		{"unknown scalar step", "- hover\n", "unknown step type: hover"},
		{"not a list", "open: https://example.com\n", "invalid steps"},
		{"scalar not accepted", "- inputText: hello\n", "does not accept a scalar"},
		{"bad sleep", "- sleep: soon\n", "cannot unmarshal"},
		{"too many documents", "name: a\n---\n- log: x\n---\n- log: y\n", "at most 2 YAML documents"},
		{"defineVariables scalar", "- defineVariables: x\n", "requires a mapping"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml), "bad.yaml")
			if err == nil {
				t.Fatal("expected error")
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected *ParseError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("expected error containing %q, got %q", tt.wantMsg, err.Error())
			}
			if !strings.HasPrefix(err.Error(), "bad.yaml") {
				t.Errorf("expected error prefixed with path, got %q", err.Error())
			}
		})
	}
}

func TestParseError_Format(t *testing.T) {
	withLine := &ParseError{Path: "a.yaml", Line: 3, Message: "boom"}
	if withLine.Error() != "a.yaml:3: boom" {
		t.Errorf("got %q", withLine.Error())
	}
	noLine := &ParseError{Path: "a.yaml", Message: "boom"}
	if noLine.Error() != "a.yaml: boom" {
		t.Errorf("got %q", noLine.Error())
	}
}

func TestParseFile_Missing(t *testing.T) {
	_, err := ParseFile("/nonexistent/test.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
