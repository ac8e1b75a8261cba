package mock

import (
	"errors"
	"testing"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/suite"
)

var _ core.Driver = (*Driver)(nil)

func click(css string) *suite.ClickStep {
	return &suite.ClickStep{BaseStep: suite.BaseStep{StepType: suite.StepClick}, Selector: suite.Selector{CSS: css}}
}

func TestExecuteFailOnStep(t *testing.T) {
	d := New(Config{FailOnStep: 2})

	if r := d.Execute(click("#a")); !r.Success {
		t.Fatalf("step 1 failed: %v", r.Error)
	}
	if r := d.Execute(click("#b")); r.Success || r.Error == nil {
		t.Fatal("step 2 should fail")
	}
	if r := d.Execute(click("#c")); !r.Success {
		t.Fatal("step 3 should succeed")
	}
	if got := len(d.Executed()); got != 3 {
		t.Errorf("executed %d steps, want 3", got)
	}
}

func TestExecuteElementInfo(t *testing.T) {
	d := New(Config{})
	r := d.Execute(click("#login"))
	if r.Element == nil || r.Element.Selector != "#login" {
		t.Fatalf("element = %+v", r.Element)
	}

	r = d.Execute(&suite.SwitchToDefaultStep{BaseStep: suite.BaseStep{StepType: suite.StepSwitchToDefault}})
	if r.Element != nil {
		t.Error("switchToDefault should not report an element")
	}
}

func TestScriptedTitle(t *testing.T) {
	d := New(Config{
		Title:  "Blank",
		Titles: map[string]string{"https://example.test/login": "Login"},
	})

	assertTitle := func(title string) *core.CommandResult {
		return d.Execute(&suite.AssertTitleStep{BaseStep: suite.BaseStep{StepType: suite.StepAssertTitle}, Title: title})
	}

	if r := assertTitle("Blank"); !r.Success {
		t.Fatalf("initial title: %v", r.Error)
	}

	d.Execute(&suite.OpenStep{BaseStep: suite.BaseStep{StepType: suite.StepOpen}, URL: "https://example.test/login"})
	if r := assertTitle("Login"); !r.Success {
		t.Fatalf("after open: %v", r.Error)
	}

	r := assertTitle("Home")
	if r.Success {
		t.Fatal("expected title mismatch")
	}
	if !errors.Is(r.Error, core.ErrTitleMismatch) {
		t.Errorf("error = %v, want title mismatch", r.Error)
	}

	r = d.Execute(&suite.WaitForTitleStep{BaseStep: suite.BaseStep{StepType: suite.StepWaitForTitle}, Title: "Home"})
	if !errors.Is(r.Error, core.ErrWaitTimeout) {
		t.Errorf("waitForTitle error = %v, want wait timeout", r.Error)
	}
}

func TestEvalScriptResult(t *testing.T) {
	d := New(Config{ScriptResult: "42"})
	r := d.Execute(&suite.EvalScriptStep{BaseStep: suite.BaseStep{StepType: suite.StepEvalScript}, Script: "1"})
	if r.Data != "42" {
		t.Errorf("Data = %v, want 42", r.Data)
	}
}

func TestScreenshotAndQuit(t *testing.T) {
	d := New(Config{})
	png, err := d.Screenshot()
	if err != nil || len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Fatalf("Screenshot() = %v, %v", png, err)
	}
	if info := d.GetBrowserInfo(); info.Browser != "mock" || info.WindowWidth != 1400 {
		t.Errorf("info = %+v", info)
	}
	if d.Closed() {
		t.Fatal("closed before Quit")
	}
	if err := d.Quit(); err != nil || !d.Closed() {
		t.Fatalf("Quit() = %v, closed = %v", err, d.Closed())
	}
}
