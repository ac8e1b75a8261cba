package chrome

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/chromedp"

	"github.com/seltest-dev/seltest/pkg/core"
	"github.com/seltest-dev/seltest/pkg/logger"
	"github.com/seltest-dev/seltest/pkg/suite"
)

// Execute runs a single browser step.
func (d *Driver) Execute(step suite.Step) *core.CommandResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(d.ctx, d.stepTimeout(step))
	defer cancel()

	logger.Debug("chrome: %s", step.Describe())
	result := d.execute(ctx, step)
	result.Duration = time.Since(start)
	if !result.Success {
		logger.Debug("chrome: %s failed: %v", step.Type(), result.Error)
	}
	return result
}

func (d *Driver) execute(ctx context.Context, step suite.Step) *core.CommandResult {
	switch s := step.(type) {
	// Navigation & interaction
	case *suite.OpenStep:
		return d.open(ctx, s)
	case *suite.ClickStep:
		return d.click(ctx, s)
	case *suite.InputTextStep:
		return d.inputText(ctx, s)
	case *suite.ClearStep:
		return d.clear(ctx, s)
	case *suite.FillAutocompleteStep:
		return d.fillAutocomplete(ctx, s)
	case *suite.SwitchToFrameStep:
		return d.switchToFrame(ctx, s)
	case *suite.SwitchToDefaultStep:
		d.frame = nil
		return core.Succeeded("Switched to default content")

	// Assertions & waits
	case *suite.AssertVisibleStep:
		return d.waitVisible(ctx, s.Selector, core.ErrElementNotVisible)
	case *suite.WaitForVisibleStep:
		return d.waitVisible(ctx, s.Selector, core.ErrWaitTimeout)
	case *suite.AssertNotVisibleStep:
		return d.assertNotVisible(ctx, s)
	case *suite.AssertTextStep:
		return d.assertText(ctx, s)
	case *suite.AssertTitleStep:
		return d.assertTitle(ctx, s)
	case *suite.WaitForTitleStep:
		return d.waitForTitle(ctx, s)

	// Scripting & media
	case *suite.EvalScriptStep:
		return d.evalScript(ctx, s)
	case *suite.TakeScreenshotStep:
		return d.takeScreenshot(ctx, s)

	default:
		return core.Failed(
			core.ErrUnsupportedStep.WithMessage(fmt.Sprintf("unsupported step: %s", step.Type())),
			fmt.Sprintf("Step %s is not handled by the chrome driver", step.Type()),
		)
	}
}

// stepTimeout is the step's own timeout or the driver default.
func (d *Driver) stepTimeout(step suite.Step) time.Duration {
	if t := step.Timeout(); t > 0 {
		return t
	}
	return d.cfg.Timeout
}

// queryOptions maps a selector to a chromedp query, scoped to the current
// frame. all selects every match instead of the first.
func (d *Driver) queryOptions(sel suite.Selector, all bool) (string, []chromedp.QueryOption) {
	query, by := selectorQuery(sel, all)
	opts := []chromedp.QueryOption{by}
	if d.frame != nil {
		opts = append(opts, chromedp.FromNode(d.frame))
	}
	return query, opts
}

func selectorQuery(sel suite.Selector, all bool) (string, chromedp.QueryOption) {
	switch {
	case sel.CSS != "":
		if all {
			return sel.CSS, chromedp.ByQueryAll
		}
		return sel.CSS, chromedp.ByQuery
	case sel.ID != "":
		q := fmt.Sprintf(`[id="%s"]`, strings.ReplaceAll(sel.ID, `"`, `\"`))
		if all {
			return q, chromedp.ByQueryAll
		}
		return q, chromedp.ByQuery
	default:
		return sel.XPath, chromedp.BySearch
	}
}

// classify wraps a chromedp error in the matching execution error.
// fallback applies to timeouts and anything unrecognised.
func classify(err error, fallback *core.ExecutionError) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fallback.WithCause(err)
	case strings.Contains(msg, "No node with given id"),
		strings.Contains(msg, "Could not find node"),
		strings.Contains(msg, "does not belong to the document"):
		return core.ErrStaleElement.WithCause(err)
	case errors.Is(err, context.Canceled),
		strings.Contains(msg, "websocket"):
		return core.ErrBrowserCrashed.WithCause(err)
	}
	return fallback.WithCause(err)
}

func (d *Driver) open(ctx context.Context, s *suite.OpenStep) *core.CommandResult {
	if err := chromedp.Run(ctx, chromedp.Navigate(s.URL)); err != nil {
		return core.Failed(classify(err, core.ErrTimeout), "Failed to open "+s.URL)
	}
	d.frame = nil
	return core.Succeeded("Opened " + s.URL)
}

// click retries while the element is stale or not yet clickable.
func (d *Driver) click(ctx context.Context, s *suite.ClickStep) *core.CommandResult {
	query, opts := d.queryOptions(s.Selector, false)
	attempts := 0
	err := retry(ctx, s.Retries, d.cfg.RetryInterval, func() error {
		attempts++
		return chromedp.Run(ctx, chromedp.Click(query, opts...))
	})
	if err != nil {
		return core.Failed(classify(err, core.ErrElementNotFound),
			fmt.Sprintf("Failed to click %s after %d attempts", s.Selector, attempts))
	}
	r := core.Succeeded("Clicked " + s.Selector.String())
	r.Element = &core.ElementInfo{Selector: s.Selector.String(), Visible: true}
	return r
}

func (d *Driver) inputText(ctx context.Context, s *suite.InputTextStep) *core.CommandResult {
	query, opts := d.queryOptions(s.Selector, false)
	if err := chromedp.Run(ctx, chromedp.SendKeys(query, s.Text, opts...)); err != nil {
		return core.Failed(classify(err, core.ErrElementNotFound), "Failed to type into "+s.Selector.String())
	}
	return core.Succeeded(fmt.Sprintf("Typed %q into %s", s.Text, s.Selector))
}

func (d *Driver) clear(ctx context.Context, s *suite.ClearStep) *core.CommandResult {
	query, opts := d.queryOptions(s.Selector, false)
	if err := chromedp.Run(ctx, chromedp.Clear(query, opts...)); err != nil {
		return core.Failed(classify(err, core.ErrElementNotFound), "Failed to clear "+s.Selector.String())
	}
	return core.Succeeded("Cleared " + s.Selector.String())
}

// fillAutocomplete sets the value directly, skipping the widget's key
// handlers and suggestion list.
func (d *Driver) fillAutocomplete(ctx context.Context, s *suite.FillAutocompleteStep) *core.CommandResult {
	query, opts := d.queryOptions(s.Selector, false)
	if err := chromedp.Run(ctx, chromedp.SetValue(query, s.Text, opts...)); err != nil {
		return core.Failed(classify(err, core.ErrElementNotFound), "Failed to fill "+s.Selector.String())
	}
	return core.Succeeded(fmt.Sprintf("Set %s to %q", s.Selector, s.Text))
}

// switchToFrame retries until the frame with the given index exists in the
// current scope.
func (d *Driver) switchToFrame(ctx context.Context, s *suite.SwitchToFrameStep) *core.CommandResult {
	var frames []*cdp.Node
	err := retry(ctx, s.Retries, d.cfg.RetryInterval, func() error {
		opts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
		if d.frame != nil {
			opts = append(opts, chromedp.FromNode(d.frame))
		}
		frames = nil
		if err := chromedp.Run(ctx, chromedp.Nodes("iframe, frame", &frames, opts...)); err != nil {
			return err
		}
		if s.Index < 0 || s.Index >= len(frames) {
			return fmt.Errorf("frame %d not found, %d present", s.Index, len(frames))
		}
		return nil
	})
	if err != nil {
		return core.Failed(core.ErrNoSuchFrame.WithCause(err), fmt.Sprintf("Failed to switch to frame %d", s.Index))
	}
	d.frame = frames[s.Index]
	return core.Succeeded(fmt.Sprintf("Switched to frame %d", s.Index))
}

func (d *Driver) waitVisible(ctx context.Context, sel suite.Selector, failure *core.ExecutionError) *core.CommandResult {
	query, opts := d.queryOptions(sel, false)
	var nodes []*cdp.Node
	err := chromedp.Run(ctx,
		chromedp.WaitVisible(query, opts...),
		chromedp.Nodes(query, &nodes, opts...),
	)
	if err != nil {
		return core.Failed(classify(err, failure), sel.String()+" is not visible")
	}
	r := core.Succeeded(sel.String() + " is visible")
	r.Element = elementInfo(sel, nodes)
	return r
}

// assertNotVisible passes when no match is rendered. Matches without a box
// model (display: none, detached) count as not visible.
func (d *Driver) assertNotVisible(ctx context.Context, s *suite.AssertNotVisibleStep) *core.CommandResult {
	query, opts := d.queryOptions(s.Selector, true)
	opts = append(opts, chromedp.AtLeast(0))

	var nodes []*cdp.Node
	visible := 0
	err := chromedp.Run(ctx,
		chromedp.Nodes(query, &nodes, opts...),
		chromedp.ActionFunc(func(ctx context.Context) error {
			for _, n := range nodes {
				if _, err := dom.GetBoxModel().WithNodeID(n.NodeID).Do(ctx); err == nil {
					visible++
				}
			}
			return nil
		}),
	)
	if err != nil {
		return core.Failed(classify(err, core.ErrTimeout), "Failed to query "+s.Selector.String())
	}
	if visible > 0 {
		return core.Failed(core.ErrElementVisible.WithDetails(map[string]interface{}{"selector": s.Selector.String()}),
			s.Selector.String()+" is visible")
	}
	return core.Succeeded(s.Selector.String() + " is not visible")
}

func (d *Driver) assertText(ctx context.Context, s *suite.AssertTextStep) *core.CommandResult {
	query, opts := d.queryOptions(s.Selector, false)
	var text string
	if err := chromedp.Run(ctx, chromedp.Text(query, &text, opts...)); err != nil {
		return core.Failed(classify(err, core.ErrElementNotFound), "Failed to read text of "+s.Selector.String())
	}
	if !s.Matches(text) {
		return core.Failed(
			core.ErrTextMismatch.WithDetails(map[string]interface{}{"expected": s.Text, "actual": text}),
			fmt.Sprintf("Text of %s is %q, expected %q", s.Selector, strings.TrimSpace(text), s.Text),
		)
	}
	r := core.Succeeded(fmt.Sprintf("Text of %s matches %q", s.Selector, s.Text))
	r.Element = &core.ElementInfo{Selector: s.Selector.String(), Text: text, Visible: true}
	return r
}

func (d *Driver) title(ctx context.Context) (string, error) {
	var title string
	err := chromedp.Run(ctx, chromedp.Title(&title))
	return title, err
}

func (d *Driver) assertTitle(ctx context.Context, s *suite.AssertTitleStep) *core.CommandResult {
	title, err := d.title(ctx)
	if err != nil {
		return core.Failed(classify(err, core.ErrTimeout), "Failed to read page title")
	}
	if title != s.Title {
		return core.Failed(
			core.ErrTitleMismatch.WithDetails(map[string]interface{}{"expected": s.Title, "actual": title}),
			fmt.Sprintf("Title is %q, expected %q", title, s.Title),
		)
	}
	r := core.Succeeded("Title is " + title)
	r.Data = title
	return r
}

// waitForTitle polls the title until it matches or the step times out.
func (d *Driver) waitForTitle(ctx context.Context, s *suite.WaitForTitleStep) *core.CommandResult {
	var last string
	err := retry(ctx, int(d.stepTimeout(s)/d.cfg.RetryInterval)+1, d.cfg.RetryInterval, func() error {
		title, err := d.title(ctx)
		if err != nil {
			return err
		}
		last = title
		if title != s.Title {
			return fmt.Errorf("title is %q", title)
		}
		return nil
	})
	if err != nil {
		return core.Failed(
			core.ErrWaitTimeout.WithCause(err).WithDetails(map[string]interface{}{"expected": s.Title, "actual": last}),
			fmt.Sprintf("Timed out waiting for title %q (last %q)", s.Title, last),
		)
	}
	r := core.Succeeded("Title is " + s.Title)
	r.Data = s.Title
	return r
}

// evalScript evaluates in the top-level document. Undefined and null
// results are returned as nil Data.
func (d *Driver) evalScript(ctx context.Context, s *suite.EvalScriptStep) *core.CommandResult {
	var res interface{}
	err := chromedp.Run(ctx, chromedp.Evaluate(s.Script, &res))
	if err != nil && !errors.Is(err, chromedp.ErrJSUndefined) && !errors.Is(err, chromedp.ErrJSNull) {
		return core.Failed(classify(err, core.ErrTimeout), "Script failed: "+err.Error())
	}
	r := core.Succeeded("Script evaluated")
	r.Data = res
	return r
}

func (d *Driver) takeScreenshot(ctx context.Context, s *suite.TakeScreenshotStep) *core.CommandResult {
	var buf []byte
	if err := chromedp.Run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
		return core.Failed(classify(err, core.ErrTimeout), "Failed to capture screenshot")
	}
	r := core.Succeeded("Captured screenshot " + s.Name)
	r.Data = buf
	return r
}

func elementInfo(sel suite.Selector, nodes []*cdp.Node) *core.ElementInfo {
	info := &core.ElementInfo{Selector: sel.String(), Visible: true}
	if len(nodes) == 0 {
		return info
	}
	n := nodes[0]
	info.TagName = strings.ToLower(n.NodeName)
	if len(n.Attributes) > 0 {
		info.Attributes = make(map[string]string, len(n.Attributes)/2)
		for i := 0; i+1 < len(n.Attributes); i += 2 {
			info.Attributes[n.Attributes[i]] = n.Attributes[i+1]
		}
	}
	return info
}
