package core

import (
	"testing"
)

func TestTestResult_Finalize(t *testing.T) {
	tests := []struct {
		name       string
		result     TestResult
		wantStatus TestStatus
		wantErrors int
	}{
		{"completed", TestResult{Completed: true}, StatusPassed, 0},
		{"completed with warning", TestResult{Completed: true, Warned: true}, StatusFailed, 1},
		{"not completed", TestResult{Errors: []string{"element not found"}}, StatusFailed, 1},
		{"not completed with warning", TestResult{Warned: true, Errors: []string{"x"}}, StatusFailed, 1},
		{"skipped", TestResult{Status: StatusSkipped}, StatusSkipped, 0},
		{"running", TestResult{Status: StatusRunning, Completed: true}, StatusPassed, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tt.result
			r.Finalize()
			if r.Status != tt.wantStatus {
				t.Errorf("Status = %s, want %s", r.Status, tt.wantStatus)
			}
			if len(r.Errors) != tt.wantErrors {
				t.Errorf("len(Errors) = %d, want %d (%v)", len(r.Errors), tt.wantErrors, r.Errors)
			}
		})
	}
}

func TestTestResult_Finalize_Idempotent(t *testing.T) {
	r := TestResult{Completed: true, Warned: true}
	r.Finalize()
	r.Finalize()

	if r.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", r.Status)
	}
	if len(r.Errors) != 1 {
		t.Errorf("Errors = %v, want the warning message once", r.Errors)
	}
}

func TestTestResult_Finalize_WarningMessage(t *testing.T) {
	r := TestResult{Completed: true, Warned: true}
	r.Finalize()

	if len(r.Errors) != 1 || r.Errors[0] != WarningMessage {
		t.Errorf("Errors = %v, want [%q]", r.Errors, WarningMessage)
	}
	if r.Passed() {
		t.Error("a warned test should not pass")
	}
}

func TestTestResult_AddLog(t *testing.T) {
	r := &TestResult{}
	r.AddLog("opened page")
	r.AddLog("clicked")

	if len(r.Log) != 2 {
		t.Fatalf("len(Log) = %d, want 2", len(r.Log))
	}
	if r.Log[1] != "clicked" {
		t.Errorf("Log[1] = %q, want clicked", r.Log[1])
	}
}

func TestSuiteResult_ComputeSummary(t *testing.T) {
	s := &SuiteResult{
		Tests: []TestResult{
			{Status: StatusPassed},
			{Status: StatusPassed},
			{Status: StatusFailed, Warned: true},
			{Status: StatusErrored},
			{Status: StatusSkipped},
		},
	}

	s.ComputeSummary()

	if s.TotalTests != 5 {
		t.Errorf("TotalTests = %d, want 5", s.TotalTests)
	}
	if s.PassedTests != 2 {
		t.Errorf("PassedTests = %d, want 2", s.PassedTests)
	}
	if s.FailedTests != 2 { // Failed + Errored
		t.Errorf("FailedTests = %d, want 2", s.FailedTests)
	}
	if s.SkippedTests != 1 {
		t.Errorf("SkippedTests = %d, want 1", s.SkippedTests)
	}
	if s.WarnedTests != 1 {
		t.Errorf("WarnedTests = %d, want 1", s.WarnedTests)
	}
}

func TestSuiteResult_ComputeSummary_Resets(t *testing.T) {
	s := &SuiteResult{Tests: []TestResult{{Status: StatusPassed}}}
	s.ComputeSummary()
	s.ComputeSummary()

	if s.PassedTests != 1 {
		t.Errorf("PassedTests = %d after recompute, want 1", s.PassedTests)
	}
}

func TestSuiteResult_Success(t *testing.T) {
	tests := []struct {
		name  string
		tests []TestResult
		want  bool
	}{
		{"empty", nil, false},
		{"all passed", []TestResult{{Status: StatusPassed}, {Status: StatusPassed}}, true},
		{"one failed", []TestResult{{Status: StatusPassed}, {Status: StatusFailed}}, false},
		{"one skipped", []TestResult{{Status: StatusPassed}, {Status: StatusSkipped}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SuiteResult{Tests: tt.tests}
			if got := s.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTestResult_AddWarning(t *testing.T) {
	r := &TestResult{}
	r.AddWarning("slow page")

	if !r.Warned {
		t.Error("Warned should be set")
	}
	if len(r.Log) != 1 || r.Log[0] != WarningPrefix+"slow page" {
		t.Errorf("Log = %v", r.Log)
	}
}
