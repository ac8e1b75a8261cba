package suite

import (
	"fmt"
	"strings"
	"time"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Navigation & Interaction
	StepOpen             StepType = "open"
	StepClick            StepType = "click"
	StepInputText        StepType = "inputText"
	StepClear            StepType = "clear"
	StepFillAutocomplete StepType = "fillAutocomplete"
	StepSwitchToFrame    StepType = "switchToFrame"
	StepSwitchToDefault  StepType = "switchToDefault"

	// Assertions & Waits
	StepAssertVisible    StepType = "assertVisible"
	StepAssertNotVisible StepType = "assertNotVisible"
	StepAssertText       StepType = "assertText"
	StepAssertTitle      StepType = "assertTitle"
	StepWaitForVisible   StepType = "waitForVisible"
	StepWaitForTitle     StepType = "waitForTitle"

	// Browser scripting & media
	StepEvalScript     StepType = "evalScript"
	StepTakeScreenshot StepType = "takeScreenshot"

	// Runner-side steps (never reach the driver)
	StepLog             StepType = "log"
	StepWarn            StepType = "warn"
	StepFail            StepType = "fail"
	StepRunScript       StepType = "runScript"
	StepAssertTrue      StepType = "assertTrue"
	StepDefineVariables StepType = "defineVariables"
	StepSleep           StepType = "sleep"
)

// Default retry and wait settings for browser steps.
const (
	DefaultRetries       = 100
	DefaultRetryInterval = 50 // milliseconds
	DefaultWaitTimeoutMs = 10000
)

// IsRunnerStep reports whether a step type is executed by the runner itself
// rather than by the browser driver.
func IsRunnerStep(t StepType) bool {
	switch t {
	case StepLog, StepWarn, StepFail, StepRunScript, StepAssertTrue,
		StepDefineVariables, StepSleep:
		return true
	}
	return false
}

// Step is the interface for all test steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Describe() string
	Timeout() time.Duration
	DefaultTimeout(ms int)
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"label"`
	TimeoutMs int      `yaml:"timeout" validate:"gte=0"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Timeout returns the step's own timeout, or 0 when unset.
func (b *BaseStep) Timeout() time.Duration { return time.Duration(b.TimeoutMs) * time.Millisecond }

// DefaultTimeout sets the timeout when the step has none of its own.
func (b *BaseStep) DefaultTimeout(ms int) {
	if b.TimeoutMs <= 0 {
		b.TimeoutMs = ms
	}
}

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string {
	if b.StepLabel != "" {
		return b.StepLabel
	}
	return string(b.StepType)
}

// Selector locates an element on the page. Exactly one of CSS, ID or XPath
// is expected; CSS wins when several are set.
type Selector struct {
	CSS   string `yaml:"css" validate:"required_without_all=ID XPath"`
	ID    string `yaml:"id"`
	XPath string `yaml:"xpath"`
}

// IsEmpty reports whether no locator is set.
func (s Selector) IsEmpty() bool {
	return s.CSS == "" && s.ID == "" && s.XPath == ""
}

// String returns the selector in a compact form for logs and reports.
func (s Selector) String() string {
	switch {
	case s.CSS != "":
		return s.CSS
	case s.ID != "":
		return "id=" + s.ID
	case s.XPath != "":
		return "xpath=" + s.XPath
	default:
		return "<empty>"
	}
}

func describeWith(b *BaseStep, detail string) string {
	if b.StepLabel != "" {
		return b.StepLabel
	}
	return fmt.Sprintf("%s %s", b.StepType, detail)
}

// ============================================
// Navigation & Interaction Steps
// ============================================

// OpenStep navigates the browser to a URL.
type OpenStep struct {
	BaseStep `yaml:",inline"`
	URL      string `yaml:"url" validate:"required"`
}

// Describe returns a human-readable description.
func (s *OpenStep) Describe() string { return describeWith(&s.BaseStep, s.URL) }

// ClickStep clicks an element, retrying while the element is stale.
type ClickStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
	Retries  int `yaml:"retries" validate:"gte=0"`
}

// Describe returns a human-readable description.
func (s *ClickStep) Describe() string { return describeWith(&s.BaseStep, s.Selector.String()) }

// InputTextStep types text into an element.
type InputTextStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
	Text     string `yaml:"text"`
}

// Describe returns a human-readable description.
func (s *InputTextStep) Describe() string {
	return describeWith(&s.BaseStep, fmt.Sprintf("%q into %s", s.Text, s.Selector))
}

// ClearStep clears an input element.
type ClearStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *ClearStep) Describe() string { return describeWith(&s.BaseStep, s.Selector.String()) }

// FillAutocompleteStep sets an autocomplete field's value through JavaScript,
// bypassing the widget's dropdown.
type FillAutocompleteStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
	Text     string `yaml:"text"`
}

// Describe returns a human-readable description.
func (s *FillAutocompleteStep) Describe() string {
	return describeWith(&s.BaseStep, fmt.Sprintf("%q into %s", s.Text, s.Selector))
}

// SwitchToFrameStep switches element lookups into an iframe by index,
// retrying while the frame has not loaded yet.
type SwitchToFrameStep struct {
	BaseStep `yaml:",inline"`
	Index    int `yaml:"index" validate:"gte=0"`
	Retries  int `yaml:"retries" validate:"gte=0"`
}

// Describe returns a human-readable description.
func (s *SwitchToFrameStep) Describe() string {
	return describeWith(&s.BaseStep, fmt.Sprintf("#%d", s.Index))
}

// SwitchToDefaultStep returns element lookups to the top-level document.
type SwitchToDefaultStep struct {
	BaseStep `yaml:",inline"`
}

// ============================================
// Assertions & Waits
// ============================================

// AssertVisibleStep asserts an element is visible.
type AssertVisibleStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *AssertVisibleStep) Describe() string { return describeWith(&s.BaseStep, s.Selector.String()) }

// AssertNotVisibleStep asserts an element is absent or hidden.
type AssertNotVisibleStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *AssertNotVisibleStep) Describe() string {
	return describeWith(&s.BaseStep, s.Selector.String())
}

// AssertTextStep asserts an element's text.
type AssertTextStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
	Text     string `yaml:"text"`
	Contains bool   `yaml:"contains"`
}

// Describe returns a human-readable description.
func (s *AssertTextStep) Describe() string {
	return describeWith(&s.BaseStep, fmt.Sprintf("%s == %q", s.Selector, s.Text))
}

// Matches reports whether actual satisfies the expected text.
func (s *AssertTextStep) Matches(actual string) bool {
	actual = strings.TrimSpace(actual)
	if s.Contains {
		return strings.Contains(actual, s.Text)
	}
	return actual == s.Text
}

// AssertTitleStep asserts the page title right now.
type AssertTitleStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
}

// Describe returns a human-readable description.
func (s *AssertTitleStep) Describe() string { return describeWith(&s.BaseStep, fmt.Sprintf("%q", s.Title)) }

// WaitForVisibleStep waits until an element is visible.
type WaitForVisibleStep struct {
	BaseStep `yaml:",inline"`
	Selector `yaml:",inline"`
}

// Describe returns a human-readable description.
func (s *WaitForVisibleStep) Describe() string { return describeWith(&s.BaseStep, s.Selector.String()) }

// WaitForTitleStep waits until the page title equals Title.
type WaitForTitleStep struct {
	BaseStep `yaml:",inline"`
	Title    string `yaml:"title"`
}

// Describe returns a human-readable description.
func (s *WaitForTitleStep) Describe() string {
	return describeWith(&s.BaseStep, fmt.Sprintf("%q", s.Title))
}

// ============================================
// Browser scripting & media
// ============================================

// EvalScriptStep evaluates JavaScript inside the page.
type EvalScriptStep struct {
	BaseStep `yaml:",inline"`
	Script   string `yaml:"script" validate:"required"`
	SaveAs   string `yaml:"saveAs"`
}

// TakeScreenshotStep saves a screenshot of the page.
type TakeScreenshotStep struct {
	BaseStep `yaml:",inline"`
	Name     string `yaml:"name"`
}

// Describe returns a human-readable description.
func (s *TakeScreenshotStep) Describe() string { return describeWith(&s.BaseStep, s.Name) }

// ============================================
// Runner-side Steps
// ============================================

// LogStep appends a line to the test log.
type LogStep struct {
	BaseStep `yaml:",inline"`
	Message  string `yaml:"message"`
}

// WarnStep records a warning; a test that completes with a warning fails.
type WarnStep struct {
	BaseStep `yaml:",inline"`
	Message  string `yaml:"message"`
}

// FailStep fails the test with a message.
type FailStep struct {
	BaseStep `yaml:",inline"`
	Message  string `yaml:"message"`
}

// RunScriptStep runs JavaScript in the local script engine.
type RunScriptStep struct {
	BaseStep `yaml:",inline"`
	Script   string            `yaml:"script" validate:"required"`
	Env      map[string]string `yaml:"env"`
}

// AssertTrueStep evaluates a condition in the local script engine.
type AssertTrueStep struct {
	BaseStep  `yaml:",inline"`
	Condition string `yaml:"condition" validate:"required"`
}

// Describe returns a human-readable description.
func (s *AssertTrueStep) Describe() string { return describeWith(&s.BaseStep, s.Condition) }

// DefineVariablesStep defines variables for later steps.
type DefineVariablesStep struct {
	BaseStep `yaml:",inline"`
	Env      map[string]string `yaml:"env" validate:"dive,keys,required,endkeys"`
}

// SleepStep pauses the test.
type SleepStep struct {
	BaseStep `yaml:",inline"`
	Ms       int `yaml:"ms" validate:"gte=0"`
}

// Describe returns a human-readable description.
func (s *SleepStep) Describe() string { return describeWith(&s.BaseStep, fmt.Sprintf("%dms", s.Ms)) }
