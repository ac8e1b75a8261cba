package suite

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single YAML test file.
func ParseFile(path string) (*Test, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided test file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses YAML test content. A file holds either a step list, or a
// config document and a step list separated by "---".
func Parse(data []byte, sourcePath string) (*Test, error) {
	parts := splitYAMLDocuments(string(data))

	test := &Test{
		SourcePath: sourcePath,
	}

	switch len(parts) {
	case 0:
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty test file"}
	case 1:
		if err := parseSteps(parts[0], test); err != nil {
			return nil, err
		}
	case 2:
		if err := parseConfig(parts[0], test); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], test); err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{
			Path:    sourcePath,
			Message: fmt.Sprintf("expected at most 2 YAML documents, found %d", len(parts)),
		}
	}

	return test, nil
}

// splitYAMLDocuments splits on "---" lines that are not inside a block scalar.
func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder
	inBlock := false
	blockIndent := 0

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)

		if !inBlock {
			if strings.HasSuffix(trimmed, "|") || strings.HasSuffix(trimmed, ">") ||
				strings.HasSuffix(trimmed, "|-") || strings.HasSuffix(trimmed, ">-") {
				inBlock = true
				if i+1 < len(lines) {
					next := lines[i+1]
					blockIndent = len(next) - len(strings.TrimLeft(next, " \t"))
				}
			}
		} else {
			indent := len(line) - len(strings.TrimLeft(line, " \t"))
			if trimmed != "" && indent < blockIndent {
				inBlock = false
			}
		}

		if !inBlock && line == "---" {
			if strings.TrimSpace(current.String()) != "" {
				parts = append(parts, current.String())
			}
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, current.String())
	}
	return parts
}

func parseConfig(content string, test *Test) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    test.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	test.Config = config
	return nil
}

func parseSteps(content string, test *Test) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    test.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for i := range rawSteps {
		step, err := parseStep(&rawSteps[i], test.SourcePath)
		if err != nil {
			return err
		}
		test.Steps = append(test.Steps, step)
	}
	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Bare command name, e.g. "- switchToDefault"
	if node.Kind == yaml.ScalarNode {
		if !isStepType(node.Value) {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", node.Value),
			}
		}
		return decodeStep(StepType(node.Value), &yaml.Node{Kind: yaml.MappingNode}, sourcePath)
	}

	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping or command name",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "unknown step type",
		}
	}

	return decodeStep(StepType(stepType), valueNode, sourcePath)
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepOpen, StepClick, StepInputText, StepClear, StepFillAutocomplete,
		StepSwitchToFrame, StepSwitchToDefault, StepAssertVisible, StepAssertNotVisible,
		StepAssertText, StepAssertTitle, StepWaitForVisible, StepWaitForTitle,
		StepEvalScript, StepTakeScreenshot, StepLog, StepWarn, StepFail,
		StepRunScript, StepAssertTrue, StepDefineVariables, StepSleep:
		return true
	}
	return false
}

// decodeInto decodes a mapping into out, or stores a scalar value in
// shorthand when the step supports one.
func decodeInto(valueNode *yaml.Node, out interface{}, shorthand *string, sourcePath string) error {
	if valueNode.Kind == yaml.ScalarNode {
		if shorthand == nil {
			if valueNode.Value == "" || valueNode.Tag == "!!null" {
				return nil
			}
			return &ParseError{
				Path:    sourcePath,
				Line:    valueNode.Line,
				Message: "step does not accept a scalar value",
			}
		}
		*shorthand = valueNode.Value
		return nil
	}
	if err := valueNode.Decode(out); err != nil {
		return wrapParseError(sourcePath, valueNode.Line, err)
	}
	return nil
}

//nolint:gocyclo
func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	var (
		step Step
		err  error
	)

	switch stepType {
	case StepOpen:
		s := &OpenStep{}
		err = decodeInto(valueNode, s, &s.URL, sourcePath)
		s.StepType, step = stepType, s

	case StepClick:
		s := &ClickStep{}
		err = decodeInto(valueNode, s, &s.CSS, sourcePath)
		if s.Retries <= 0 {
			s.Retries = DefaultRetries
		}
		s.StepType, step = stepType, s

	case StepInputText:
		s := &InputTextStep{}
		err = decodeInto(valueNode, s, nil, sourcePath)
		s.StepType, step = stepType, s

	case StepClear:
		s := &ClearStep{}
		err = decodeInto(valueNode, s, &s.CSS, sourcePath)
		s.StepType, step = stepType, s

	case StepFillAutocomplete:
		s := &FillAutocompleteStep{}
		err = decodeInto(valueNode, s, nil, sourcePath)
		s.StepType, step = stepType, s

	case StepSwitchToFrame:
		s := &SwitchToFrameStep{}
		if valueNode.Kind == yaml.ScalarNode && valueNode.Value != "" {
			if derr := valueNode.Decode(&s.Index); derr != nil {
				err = wrapParseError(sourcePath, valueNode.Line, derr)
			}
		} else {
			err = decodeInto(valueNode, s, nil, sourcePath)
		}
		if s.Retries <= 0 {
			s.Retries = DefaultRetries
		}
		s.StepType, step = stepType, s

	case StepSwitchToDefault:
		s := &SwitchToDefaultStep{}
		err = decodeInto(valueNode, s, nil, sourcePath)
		s.StepType, step = stepType, s

	case StepAssertVisible:
		s := &AssertVisibleStep{}
		err = decodeInto(valueNode, s, &s.CSS, sourcePath)
		s.StepType, step = stepType, s

	case StepAssertNotVisible:
		s := &AssertNotVisibleStep{}
		err = decodeInto(valueNode, s, &s.CSS, sourcePath)
		s.StepType, step = stepType, s

	case StepAssertText:
		s := &AssertTextStep{}
		err = decodeInto(valueNode, s, nil, sourcePath)
		s.StepType, step = stepType, s

	case StepAssertTitle:
		s := &AssertTitleStep{}
		err = decodeInto(valueNode, s, &s.Title, sourcePath)
		s.StepType, step = stepType, s

	case StepWaitForVisible:
		s := &WaitForVisibleStep{}
		err = decodeInto(valueNode, s, &s.CSS, sourcePath)
		if s.TimeoutMs <= 0 {
			s.TimeoutMs = DefaultWaitTimeoutMs
		}
		s.StepType, step = stepType, s

	case StepWaitForTitle:
		s := &WaitForTitleStep{}
		err = decodeInto(valueNode, s, &s.Title, sourcePath)
		if s.TimeoutMs <= 0 {
			s.TimeoutMs = DefaultWaitTimeoutMs
		}
		s.StepType, step = stepType, s

	case StepEvalScript:
		s := &EvalScriptStep{}
		err = decodeInto(valueNode, s, &s.Script, sourcePath)
		s.StepType, step = stepType, s

	case StepTakeScreenshot:
		s := &TakeScreenshotStep{}
		err = decodeInto(valueNode, s, &s.Name, sourcePath)
		s.StepType, step = stepType, s

	case StepLog:
		s := &LogStep{}
		err = decodeInto(valueNode, s, &s.Message, sourcePath)
		s.StepType, step = stepType, s

	case StepWarn:
		s := &WarnStep{}
		err = decodeInto(valueNode, s, &s.Message, sourcePath)
		s.StepType, step = stepType, s

	case StepFail:
		s := &FailStep{}
		err = decodeInto(valueNode, s, &s.Message, sourcePath)
		s.StepType, step = stepType, s

	case StepRunScript:
		s := &RunScriptStep{}
		err = decodeInto(valueNode, s, &s.Script, sourcePath)
		s.StepType, step = stepType, s

	case StepAssertTrue:
		s := &AssertTrueStep{}
		err = decodeInto(valueNode, s, &s.Condition, sourcePath)
		s.StepType, step = stepType, s

	case StepDefineVariables:
		s := &DefineVariablesStep{}
		if valueNode.Kind == yaml.MappingNode {
			if derr := valueNode.Decode(&s.Env); derr != nil {
				err = wrapParseError(sourcePath, valueNode.Line, derr)
			}
		} else {
			err = &ParseError{Path: sourcePath, Line: valueNode.Line, Message: "defineVariables requires a mapping"}
		}
		s.StepType, step = stepType, s

	case StepSleep:
		s := &SleepStep{}
		if valueNode.Kind == yaml.ScalarNode {
			if derr := valueNode.Decode(&s.Ms); derr != nil {
				err = wrapParseError(sourcePath, valueNode.Line, derr)
			}
		} else {
			err = decodeInto(valueNode, s, nil, sourcePath)
		}
		s.StepType, step = stepType, s

	default:
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: fmt.Sprintf("unknown step type: %s", stepType),
		}
	}

	if err != nil {
		return nil, err
	}
	return step, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}
