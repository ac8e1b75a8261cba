package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/seltest-dev/seltest/pkg/logger"
)

// AllureDir is the directory name of the allure export inside a run directory.
const AllureDir = "allure-results"

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
}

// AllureCategory defines a failure category with regex matching.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	MessageRegex    string   `json:"messageRegex"`
}

// GenerateAllure writes Allure-compatible result files for index into
// <runDir>/allure-results/.
func GenerateAllure(runDir string, index *Index) error {
	allureDir := filepath.Join(runDir, AllureDir)
	if err := os.MkdirAll(allureDir, 0o755); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for _, r := range index.Results {
		result := buildAllureResult(r)
		if r.Screenshot != "" {
			copyFile(filepath.Join(runDir, filepath.FromSlash(r.Screenshot)),
				filepath.Join(allureDir, result.Attachments[0].Source))
		}

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", r.Name, err)
		}
		resultPath := filepath.Join(allureDir, result.UUID+"-result.json")
		if err := os.WriteFile(resultPath, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", r.Name, err)
		}
	}

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	return writeAllureEnvironment(allureDir, index)
}

// buildAllureResult maps a result to Allure. Categories become the suite
// hierarchy: first → parentSuite, second → suite, the rest → subSuite.
func buildAllureResult(r Result) AllureResult {
	segments := strings.Split(r.Name, Separator)
	categories, name := segments[:len(segments)-1], segments[len(segments)-1]

	labels := []AllureLabel{
		{Name: "framework", Value: "seltest"},
		{Name: "severity", Value: "normal"},
	}
	suiteLabels := []string{"parentSuite", "suite", "subSuite"}
	for i, label := range suiteLabels {
		if i >= len(categories) {
			break
		}
		value := categories[i]
		if label == "subSuite" {
			value = strings.Join(categories[i:], Separator)
		}
		labels = append(labels, AllureLabel{Name: label, Value: value})
	}
	for _, tag := range r.Tags {
		labels = append(labels, AllureLabel{Name: "tag", Value: tag})
	}

	id := uuid.New().String()
	var attachments []AllureAttachment
	if r.Screenshot != "" {
		attachments = append(attachments, AllureAttachment{
			Name:   "Screenshot",
			Source: id + "-attachment" + filepath.Ext(r.Screenshot),
			Type:   "image/png",
		})
	}

	start := r.StartTime.UnixMilli()
	return AllureResult{
		UUID:        id,
		HistoryID:   fnv32aHash(r.Name),
		FullName:    r.Name,
		Name:        name,
		Description: r.Description,
		Status:      mapAllureStatus(r),
		Stage:       "finished",
		Start:       start,
		Stop:        start + r.Duration,
		Labels:      labels,
		StatusDetails: AllureStatusDetails{
			Message: r.Error(),
			Trace:   strings.Join(r.Errors, "\n"),
		},
		Attachments: attachments,
	}
}

// copyFile copies a single file from src to dst. Failures are logged only.
func copyFile(src, dst string) {
	in, err := os.Open(src) //#nosec G304 -- path is inside the run directory
	if err != nil {
		logger.Warn("allure: cannot open %s: %v", src, err)
		return
	}
	defer in.Close()

	out, err := os.Create(dst) //#nosec G304 -- path is inside the run directory
	if err != nil {
		logger.Warn("allure: cannot create %s: %v", dst, err)
		return
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		logger.Warn("failed to copy %s to %s: %v", src, dst, err)
	}
}

// mapAllureStatus maps a result to an Allure status string. A test that
// failed only because of a warning is reported as broken.
func mapAllureStatus(r Result) string {
	switch r.Status {
	case StatusPassed:
		return "passed"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		if r.Warned && len(r.Errors) == 1 {
			return "broken"
		}
		return "failed"
	default:
		return "unknown"
	}
}

// fnv32aHash returns a hex-encoded FNV-32a hash of the input string.
func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

// writeAllureCategories writes categories.json for failure categorization.
func writeAllureCategories(allureDir string) error {
	categories := []AllureCategory{
		{Name: "Warnings", MatchedStatuses: []string{"broken"}, MessageRegex: "(?i).*warning detected.*"},
		{Name: "Element Not Found", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*element not found.*"},
		{Name: "Element Not Visible", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*not visible.*"},
		{Name: "Timeout", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*timeout.*|.*timed out.*"},
		{Name: "Title Mismatch", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*title.*"},
		{Name: "Assertion Failed", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*assert.*|.*mismatch.*"},
		{Name: "Browser Error", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*browser.*|.*frame.*|.*stale.*"},
		{Name: "Script Error", MatchedStatuses: []string{"failed"}, MessageRegex: "(?i).*JS (eval|runtime) error.*"},
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}

	path := filepath.Join(allureDir, "categories.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

// writeAllureEnvironment writes environment.properties with browser metadata.
func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=seltest\n")
	b.WriteString(fmt.Sprintf("run.id=%s\n", index.RunID))
	if index.Suite != "" {
		b.WriteString(fmt.Sprintf("suite=%s\n", index.Suite))
	}
	if br := index.Browser; br != nil {
		b.WriteString(fmt.Sprintf("browser.name=%s\n", br.Browser))
		if br.Version != "" {
			b.WriteString(fmt.Sprintf("browser.version=%s\n", br.Version))
		}
		b.WriteString(fmt.Sprintf("browser.headless=%t\n", br.Headless))
		b.WriteString(fmt.Sprintf("browser.window=%dx%d\n", br.WindowWidth, br.WindowHeight))
	}

	path := filepath.Join(allureDir, "environment.properties")
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}
