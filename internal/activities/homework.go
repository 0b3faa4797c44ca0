package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

var (
	dashboardTab    = browser.XPath("//span[contains(text(), 'Dashboard')]")
	pendingHomework = browser.XPath("//*[contains(text(),'Pending Homework')]")

	mcqOptions = browser.XPath("//div[contains(@class, 'group') and .//span]" +
		" | //label[contains(., '0.25') or contains(., '0.50') or contains(., '0.75') or contains(., '1.00')]" +
		" | //input[@type='radio']/parent::label" +
		" | //div[contains(@class, 'option-card')]" +
		" | //button[contains(@class, 'mcq-option')]" +
		" | //div[contains(@class, 'question-option')]")
	trueFalseOptions = browser.XPath("//div[contains(@class, 'group') and .//span]" +
		" | //label[contains(., 'True') or contains(., 'False')]" +
		" | //input[@type='radio']/parent::label" +
		" | //button[contains(., 'True')]" +
		" | //button[contains(., 'False')]")
	answerTextareas = browser.XPath("//textarea")
	answerInputs    = browser.XPath("//input[@type='text' or @type='search']")
	nextOrSubmit    = browser.XPath("//button[contains(., 'Next') or contains(., 'Submit Assignment')]")
	submitHomework  = buttonWithText("Submit Assignment")
)

// homeworkCard matches the first pending homework card for subject.
func homeworkCard(subject string) browser.Selector {
	return browser.XPath(fmt.Sprintf("(//h4[contains(text(), %s)]/parent::*)[1]", browser.Literal(subject)))
}

// chooseSecondOptions moves every select with a choice to its second option
// and reports how many selects the page holds.
const chooseSecondOptions = `(function(){
	const sels = Array.from(document.querySelectorAll('select'));
	let changed = 0;
	for (const s of sels) {
		if (s.options.length > 1) {
			s.selectedIndex = 1;
			s.dispatchEvent(new Event('input', {bubbles: true}));
			s.dispatchEvent(new Event('change', {bubbles: true}));
			changed++;
		}
	}
	return {total: sels.length, changed: changed};
})()`

type selectResult struct {
	Total   int `json:"total"`
	Changed int `json:"changed"`
}

// StudentHomework opens the first pending homework for the configured
// subject, answers every question and submits it.
func StudentHomework(ctx context.Context, env *Env) error {
	if err := openDashboard(ctx, env); err != nil {
		return err
	}

	t := env.Journal.Begin("PendingHomework")
	if err := openHomework(ctx, env, t); err != nil {
		env.screenshot(ctx, t, "pending_homework_error")
		return t.Fail("find_assignment", err, "Error opening pending homework")
	}

	submitted := false
	for q := 1; q <= env.rounds(); q++ {
		kind, err := answerQuestion(ctx, env, t)
		if err != nil {
			env.screenshot(ctx, t, "pending_homework_error")
			return t.Fail(fmt.Sprintf("question_%d", q), err, "Error answering question")
		}
		if kind == "" {
			t.Warn(fmt.Sprintf("question_%d", q), observability.StatusSkipped, "No answerable input found")
		} else {
			t.Step(fmt.Sprintf("question_%d", q), fmt.Sprintf("Answered %s question", kind))
		}

		var done bool
		submitted, done, err = advance(ctx, env, t)
		if err != nil {
			env.screenshot(ctx, t, "pending_homework_error")
			return t.Fail("next", err, "Error moving to the next question")
		}
		if done {
			break
		}
	}

	if !submitted {
		finalSubmit(ctx, env, t)
	}
	t.Done("Pending homework completed")
	return nil
}

func openDashboard(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("Dashboard")
	if err := env.Page.WaitVisible(ctx, dashboardTab, redirectWait); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.Warn("dashboard_tab_not_found", observability.StatusSkipped, "Dashboard tab not found, assuming it is open")
		t.Done("Dashboard ready")
		return nil
	}
	if err := env.Page.JSClick(ctx, dashboardTab); err != nil {
		return t.Fail("dashboard_tab_clicked", err, "Failed to click Dashboard tab")
	}
	if err := env.Pause(ctx, 2*time.Second); err != nil {
		return err
	}
	t.Done("Dashboard ready")
	return nil
}

func openHomework(ctx context.Context, env *Env, t *Tracker) error {
	page := env.Page
	t.Step("find_section", "Looking for Pending Homework section")
	if err := page.WaitPresent(ctx, pendingHomework, longWait); err != nil {
		return err
	}
	if err := page.ScrollIntoView(ctx, pendingHomework, false); err != nil {
		return err
	}
	if err := env.Pause(ctx, time.Second); err != nil {
		return err
	}

	card := homeworkCard(env.App.Homework.Subject)
	if err := waitClick(ctx, env, card, time.Second); err != nil {
		return err
	}
	t.Step("assignment_clicked", "Opened the top pending assignment")
	return env.Pause(ctx, 2*time.Second)
}

// answerQuestion tries each question style in order of preference and
// returns the one it answered, or "" when none applied.
func answerQuestion(ctx context.Context, env *Env, t *Tracker) (string, error) {
	for _, opt := range []struct {
		kind string
		sel  browser.Selector
	}{
		{"multiple choice", mcqOptions},
		{"true/false", trueFalseOptions},
	} {
		ok, err := clickRandom(ctx, env, opt.sel)
		if err != nil {
			return "", err
		}
		if ok {
			return opt.kind, nil
		}
	}

	var res selectResult
	if err := env.Page.Evaluate(ctx, chooseSecondOptions, &res); err != nil {
		return "", err
	}
	if res.Total > 0 {
		return "matching", nil
	}

	hw := env.App.Homework
	answer := func(i int) string { return fmt.Sprintf("%s %d", hw.AnswerPrefix, hw.AnswerBase+i) }
	for _, sel := range []browser.Selector{answerTextareas, answerInputs} {
		n, err := fillEach(ctx, env, t, sel, 0, answer)
		if err != nil {
			return "", err
		}
		if n > 0 {
			return "fill in the blank", nil
		}
	}
	return "", nil
}

// clickRandom clicks one visible match of sel chosen at random.
func clickRandom(ctx context.Context, env *Env, sel browser.Selector) (bool, error) {
	n, err := env.Page.Count(ctx, sel)
	if err != nil || n == 0 {
		return false, err
	}
	var visible []int
	for i := 0; i < n; i++ {
		if shown, _ := env.Page.Visible(ctx, sel.Nth(i)); shown {
			visible = append(visible, i)
		}
	}
	if len(visible) == 0 {
		return false, nil
	}

	choice := sel.Nth(visible[env.Rand.Intn(len(visible))])
	if err := scrollAndClick(ctx, env, choice); err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return false, nil
	}
	return true, nil
}

// advance clicks Next or Submit Assignment. It reports whether the homework
// was submitted and whether the question loop should stop.
func advance(ctx context.Context, env *Env, t *Tracker) (submitted, done bool, err error) {
	page := env.Page
	if err := page.WaitPresent(ctx, nextOrSubmit, shortWait); err != nil {
		if ctx.Err() != nil {
			return false, true, ctx.Err()
		}
		t.Step("no_next", "No Next or Submit Assignment button, ending loop")
		return false, true, nil
	}

	label, err := page.Text(ctx, nextOrSubmit)
	if err != nil {
		return false, true, err
	}
	if strings.Contains(label, "Submit Assignment") {
		if err := page.Click(ctx, nextOrSubmit); err != nil {
			return false, true, err
		}
		t.Step("submit_clicked", "Clicked Submit Assignment")
		return true, true, nil
	}

	st, err := stateOf(ctx, page, nextOrSubmit)
	if err != nil {
		return false, true, err
	}
	if st.Disabled {
		t.Step("next_disabled", "Next button is disabled, ending loop")
		return false, true, nil
	}
	if err := page.Click(ctx, nextOrSubmit); err != nil {
		return false, true, err
	}
	t.Step("next_clicked", "Clicked Next")
	return false, false, env.Pause(ctx, 2*time.Second)
}

// finalSubmit makes one last attempt at Submit Assignment. Confirmation
// dialogs are accepted by the session.
func finalSubmit(ctx context.Context, env *Env, t *Tracker) {
	if err := env.Page.WaitVisible(ctx, submitHomework, 5*time.Second); err != nil {
		t.Warn("submit_not_found", observability.StatusNotFound, "Could not find Submit Assignment at the end", observability.ErrorMessage(err))
		return
	}
	if err := scrollAndClick(ctx, env, submitHomework); err != nil {
		t.Warn("submit_not_found", observability.StatusFailure, "Could not click Submit Assignment at the end", observability.ErrorMessage(err))
		return
	}
	t.Step("submit_clicked", "Clicked Submit Assignment at the end")
	_ = env.Pause(ctx, 2*time.Second)
}
