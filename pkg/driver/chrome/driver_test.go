package chrome

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/chromedp/cdproto/cdp"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/suite"
)

var _ core.Driver = (*Driver)(nil)

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()
	if cfg.WindowWidth != 1400 || cfg.WindowHeight != 800 {
		t.Errorf("window = %dx%d, want 1400x800", cfg.WindowWidth, cfg.WindowHeight)
	}
	if cfg.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v", cfg.Timeout)
	}
	if cfg.RetryInterval != 50*time.Millisecond {
		t.Errorf("RetryInterval = %v", cfg.RetryInterval)
	}

	cfg = Config{WindowWidth: 800, WindowHeight: 600, Timeout: time.Second}
	cfg.applyDefaults()
	if cfg.WindowWidth != 800 || cfg.WindowHeight != 600 || cfg.Timeout != time.Second {
		t.Errorf("explicit values overwritten: %+v", cfg)
	}
}

func TestAllocatorOptions(t *testing.T) {
	base := len(allocatorOptions(Config{}))
	if got := len(allocatorOptions(Config{ExecPath: "/usr/bin/chromium", NoSandbox: true})); got != base+2 {
		t.Errorf("options = %d, want %d", got, base+2)
	}
}

func TestSelectorQuery(t *testing.T) {
	tests := []struct {
		name  string
		sel   suite.Selector
		query string
	}{
		{"css", suite.Selector{CSS: "#login"}, "#login"},
		{"id", suite.Selector{ID: "user"}, `[id="user"]`},
		{"id with quote", suite.Selector{ID: `a"b`}, `[id="a\"b"]`},
		{"xpath", suite.Selector{XPath: "//button"}, "//button"},
		{"css wins", suite.Selector{CSS: ".x", ID: "y"}, ".x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, by := selectorQuery(tt.sel, false)
			if query != tt.query {
				t.Errorf("query = %q, want %q", query, tt.query)
			}
			if by == nil {
				t.Error("nil query option")
			}
		})
	}
}

func TestQueryOptionsFrameScope(t *testing.T) {
	d := &Driver{}
	_, opts := d.queryOptions(suite.Selector{CSS: "a"}, false)
	if len(opts) != 1 {
		t.Fatalf("top-level opts = %d, want 1", len(opts))
	}

	d.frame = &cdp.Node{NodeName: "IFRAME"}
	_, opts = d.queryOptions(suite.Selector{CSS: "a"}, true)
	if len(opts) != 2 {
		t.Fatalf("frame opts = %d, want 2", len(opts))
	}
}

func TestStepTimeout(t *testing.T) {
	d := &Driver{cfg: Config{Timeout: 3 * time.Second}}

	s := &suite.ClickStep{}
	if got := d.stepTimeout(s); got != 3*time.Second {
		t.Errorf("default = %v", got)
	}
	s.TimeoutMs = 250
	if got := d.stepTimeout(s); got != 250*time.Millisecond {
		t.Errorf("step timeout = %v", got)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want *core.ExecutionError
	}{
		{"deadline", fmt.Errorf("wait: %w", context.DeadlineExceeded), core.ErrElementNotFound},
		{"stale", errors.New("No node with given id found (-32000)"), core.ErrStaleElement},
		{"cancelled", context.Canceled, core.ErrBrowserCrashed},
		{"other", errors.New("boom"), core.ErrElementNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := classify(tt.err, core.ErrElementNotFound)
			if !errors.Is(err, tt.want) {
				t.Errorf("classify(%v) = %v, want %s", tt.err, err, tt.want.Code)
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("cause %v not preserved", tt.err)
			}
		})
	}
	if classify(nil, core.ErrTimeout) != nil {
		t.Error("classify(nil) != nil")
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 5, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("stale")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("retry() = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetryExhausted(t *testing.T) {
	calls := 0
	err := retry(context.Background(), 4, time.Millisecond, func() error {
		calls++
		return fmt.Errorf("attempt %d", calls)
	})
	if err == nil || err.Error() != "attempt 5" {
		t.Errorf("retry() = %v, want last attempt error", err)
	}
	if calls != 5 {
		t.Errorf("calls = %d, want 5 (1 + 4 retries)", calls)
	}
}

func TestRetryStopsOnContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := retry(ctx, 1000, 10*time.Millisecond, func() error {
		calls++
		if calls == 2 {
			cancel()
		}
		return errors.New("not yet")
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if calls > 3 {
		t.Errorf("calls = %d, retry ignored cancellation", calls)
	}
}

func TestElementInfo(t *testing.T) {
	info := elementInfo(suite.Selector{CSS: "#a"}, []*cdp.Node{{
		NodeName:   "BUTTON",
		Attributes: []string{"id", "a", "class", "primary"},
	}})
	if info.TagName != "button" {
		t.Errorf("TagName = %q", info.TagName)
	}
	if info.Attributes["class"] != "primary" || info.Attributes["id"] != "a" {
		t.Errorf("Attributes = %v", info.Attributes)
	}
	if elementInfo(suite.Selector{CSS: "#a"}, nil).Selector != "#a" {
		t.Error("empty nodes lost selector")
	}
}

func TestExecuteUnsupportedStep(t *testing.T) {
	d := &Driver{ctx: context.Background(), cfg: Config{Timeout: time.Second}}
	r := d.Execute(&suite.LogStep{BaseStep: suite.BaseStep{StepType: suite.StepLog}})
	if r.Success || !errors.Is(r.Error, core.ErrUnsupportedStep) {
		t.Errorf("Execute(log) = %+v", r)
	}
}

func TestSwitchToDefaultClearsFrame(t *testing.T) {
	d := &Driver{ctx: context.Background(), cfg: Config{Timeout: time.Second}, frame: &cdp.Node{}}
	r := d.Execute(&suite.SwitchToDefaultStep{BaseStep: suite.BaseStep{StepType: suite.StepSwitchToDefault}})
	if !r.Success || d.frame != nil {
		t.Errorf("switchToDefault: success=%v frame=%v", r.Success, d.frame)
	}
}
