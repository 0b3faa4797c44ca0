package activities

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

var (
	createAssignment = buttonWithText("Create Assignment")
	continueDetails  = buttonWithText("Continue to Assignment Details")
	classDropdown    = browser.XPath("//button[.//span[text()='Choose classes...']]")
	gradeSelect      = browser.XPath(`//select[./option[contains(text(), "Grade")]]`)
	subjectSelect    = browser.XPath(`(//label[contains(text(), "Subject")]/following-sibling::select | //select)[2]`)
	unitSelect       = browser.XPath(`(//label[contains(text(), "Unit")]/following-sibling::select | //select)[3]`)
	dueDateInput     = browser.XPath("//input[@type='date']")
	descriptionInput = anyOf("textarea",
		"contains(@placeholder,'assignment instructions')",
		"contains(@placeholder,'context')",
		"contains(@placeholder,'description')",
		"contains(@placeholder,'Provide')")
	generateAI   = browser.XPath(fmt.Sprintf("//button[%s and contains(., 'AI')]", browser.ContainsFold("generate")))
	sendHomework = buttonWithText("Send Homework")
)

const (
	typeCardWait    = time.Second
	multiSelectWait = 500 * time.Millisecond
	classScrolls    = 5
	selectPolls     = 10
)

func typeCard(name string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//div[contains(text(), %s) and contains(@class, 'cursor-pointer')]", browser.Literal(name)))
}

func anyWithText(name string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//*[contains(text(), %s)]", browser.Literal(name)))
}

func classOption(name string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//*[contains(text(), %s) and (self::li or self::div)]", browser.Literal(name)))
}

func classContainer(name string) browser.Selector {
	return browser.XPath(fmt.Sprintf(
		"//div[contains(@class, 'overflow-y-auto') or contains(@class, 'scrollbar') or contains(@class, 'max-h')][descendant::*[contains(text(), %s)]]",
		browser.Literal(name)))
}

// looseTerm is the fragment used when an option's exact text is missing:
// the number of a grade, or a word without its plural ending.
func looseTerm(value string) string {
	fields := strings.Fields(value)
	if len(fields) == 0 {
		return ""
	}
	last := fields[len(fields)-1]
	if strings.IndexFunc(last, func(r rune) bool { return r < '0' || r > '9' }) < 0 {
		return last
	}
	return strings.TrimSuffix(fields[0], "s")
}

// dueDate formats the configured due date as the date input expects.
func dueDate(now time.Time, days int) string {
	return now.AddDate(0, 0, days).Format("2006-01-02")
}

// OpenMyDesk switches a teacher session to the My Desk tab.
func OpenMyDesk(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("MyDesk")
	tab := sidebarTab("My Desk")
	err := env.Page.WaitVisible(ctx, tab, longWait)
	if err == nil {
		err = env.Page.Click(ctx, tab)
	}
	if err != nil {
		env.screenshot(ctx, t, "my_desk_error")
		return t.Fail("navigate_my_desk", err, "Navigation to My Desk failed")
	}
	t.Done("Opened My Desk")
	return nil
}

// TeacherAssignment creates and sends one assignment of the configured type.
func TeacherAssignment(ctx context.Context, env *Env) error {
	if err := OpenMyDesk(ctx, env); err != nil {
		return err
	}
	return CreateAssignment(ctx, env, env.App.Assignment.Type)
}

// TeacherAssignmentAll creates one assignment with every question type
// selected, then one assignment per type.
func TeacherAssignmentAll(ctx context.Context, env *Env) error {
	if err := OpenMyDesk(ctx, env); err != nil {
		return err
	}
	if err := CreateMixedAssignment(ctx, env, env.App.Assignment.Types); err != nil {
		return err
	}
	for _, kind := range env.App.Assignment.Types {
		if err := CreateAssignment(ctx, env, kind); err != nil {
			return err
		}
	}
	return nil
}

// CreateAssignment opens the creation wizard, picks kind and sends the
// generated homework.
func CreateAssignment(ctx context.Context, env *Env, kind string) error {
	t := env.Journal.Begin("Assignment")
	slug := tabSlug(strings.ReplaceAll(kind, "/", ""))

	if err := openWizard(ctx, env, t); err != nil {
		env.screenshot(ctx, t, "assignment_"+slug+"_error")
		return t.Fail("click_create_assignment", err, "Failed to open the assignment wizard")
	}

	t.Step("select_"+slug, fmt.Sprintf("Selecting '%s' assignment type", kind))
	if err := pickType(ctx, env, kind, typeCardWait); err != nil {
		env.screenshot(ctx, t, "assignment_"+slug+"_error")
		return t.Fail("select_"+slug, err, fmt.Sprintf("Assignment type '%s' not found", kind))
	}
	if err := env.Pause(ctx, 2*time.Second); err != nil {
		return err
	}

	if err := fillDetails(ctx, env, t, env.App.Assignment); err != nil {
		env.screenshot(ctx, t, slug+"_details_error")
		return t.Fail("fill_details", err, fmt.Sprintf("Error filling %s details", kind))
	}
	t.Done(fmt.Sprintf("Sent %s assignment", kind))
	return nil
}

// CreateMixedAssignment selects every type it can find in one wizard.
// Types that cannot be selected are logged and skipped.
func CreateMixedAssignment(ctx context.Context, env *Env, kinds []string) error {
	t := env.Journal.Begin("Assignment")

	if err := openWizard(ctx, env, t); err != nil {
		env.screenshot(ctx, t, "assignment_all_types_error")
		return t.Fail("click_create_assignment_all_types", err, "Failed to open the assignment wizard")
	}

	selected := 0
	for _, kind := range kinds {
		step := "select_all_" + tabSlug(strings.ReplaceAll(kind, "/", ""))
		if err := pickType(ctx, env, kind, multiSelectWait); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Warn(step, observability.StatusSkipped, fmt.Sprintf("Could not select %s", kind), observability.ErrorMessage(err))
			continue
		}
		selected++
		t.Step(step, fmt.Sprintf("'%s' selected", kind))
	}
	if selected == 0 {
		env.screenshot(ctx, t, "select_all_types_error")
		return t.Fail("select_all_types", fmt.Errorf("none of %d types available", len(kinds)), "No assignment type could be selected")
	}

	if err := fillDetails(ctx, env, t, env.App.Assignment); err != nil {
		env.screenshot(ctx, t, "assignment_all_types_error")
		return t.Fail("fill_details", err, "Error filling mixed assignment details")
	}
	t.Done(fmt.Sprintf("Sent assignment with %d question types", selected))
	return nil
}

func openWizard(ctx context.Context, env *Env, t *Tracker) error {
	t.Step("click_create_assignment", "Clicking Create Assignment")
	if err := env.Page.WaitVisible(ctx, createAssignment, longWait); err != nil {
		return err
	}
	if err := env.Page.Click(ctx, createAssignment); err != nil {
		return err
	}
	return env.Pause(ctx, 2*time.Second)
}

func pickType(ctx context.Context, env *Env, kind string, wait time.Duration) error {
	sel, err := browser.First(ctx, env.Page, wait, typeCard(kind), anyWithText(kind))
	if err != nil {
		return err
	}
	if err := env.Page.ScrollIntoView(ctx, sel, false); err != nil {
		return err
	}
	if err := env.Pause(ctx, pauseBeforeClick); err != nil {
		return err
	}
	return env.Page.Click(ctx, sel)
}

// waitClick waits for sel, centres it and clicks it after a pause of settle.
func waitClick(ctx context.Context, env *Env, sel browser.Selector, settle time.Duration) error {
	if err := env.Page.WaitVisible(ctx, sel, longWait); err != nil {
		return err
	}
	if err := env.Page.ScrollIntoView(ctx, sel, false); err != nil {
		return err
	}
	if err := env.Pause(ctx, settle); err != nil {
		return err
	}
	return env.Page.Click(ctx, sel)
}

func fillDetails(ctx context.Context, env *Env, t *Tracker, a config.AssignmentConfig) error {
	page := env.Page

	if err := waitClick(ctx, env, continueDetails, time.Second); err != nil {
		return fmt.Errorf("continue to details: %w", err)
	}
	t.Step("continue_details", "Continued to assignment details")

	if err := pickClass(ctx, env, a.ClassName); err != nil {
		return fmt.Errorf("class %q: %w", a.ClassName, err)
	}
	t.Step("class_selected", fmt.Sprintf("Selected class '%s'", a.ClassName))

	if err := page.WaitPresent(ctx, gradeSelect, longWait); err != nil {
		return fmt.Errorf("grade select: %w", err)
	}
	if err := page.ScrollIntoView(ctx, gradeSelect, false); err != nil {
		return err
	}
	if err := env.Pause(ctx, time.Second); err != nil {
		return err
	}
	grade, err := page.SelectOption(ctx, gradeSelect, a.Grade, looseTerm(a.Grade))
	if err != nil {
		return fmt.Errorf("grade %q: %w", a.Grade, err)
	}
	t.Step("grade_selected", "Selected grade "+grade)

	for _, dep := range []struct {
		sel   browser.Selector
		value string
		step  string
	}{
		{subjectSelect, a.Subject, "subject_selected"},
		{unitSelect, a.Unit, "unit_selected"},
	} {
		if err := waitOptions(ctx, env, dep.sel); err != nil {
			return err
		}
		chosen, err := page.SelectOption(ctx, dep.sel, dep.value, looseTerm(dep.value))
		if err != nil {
			return fmt.Errorf("%s %q: %w", dep.step, dep.value, err)
		}
		t.Step(dep.step, "Selected "+chosen)
	}

	if err := page.WaitVisible(ctx, dueDateInput, longWait); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	if err := page.ScrollIntoView(ctx, dueDateInput, false); err != nil {
		return err
	}
	if err := env.Pause(ctx, pauseBeforeClick); err != nil {
		return err
	}
	due := dueDate(env.Now(), a.DueInDays)
	if err := page.SetValue(ctx, dueDateInput, due); err != nil {
		return fmt.Errorf("due date: %w", err)
	}
	t.Step("due_date_set", "Due date set to "+due)

	if err := page.ScrollBy(ctx, 0, 300); err != nil {
		return err
	}
	if err := env.Pause(ctx, pauseBeforeClick); err != nil {
		return err
	}

	if err := page.WaitVisible(ctx, descriptionInput, longWait); err != nil {
		return fmt.Errorf("description: %w", err)
	}
	if err := page.Type(ctx, descriptionInput, a.Description); err != nil {
		return fmt.Errorf("description: %w", err)
	}

	if err := waitClick(ctx, env, generateAI, time.Second); err != nil {
		return fmt.Errorf("generate with AI: %w", err)
	}
	t.Step("generate_clicked", "Generating questions with AI")
	if err := env.Pause(ctx, 20*time.Second); err != nil {
		return err
	}

	if err := waitClick(ctx, env, sendHomework, time.Second); err != nil {
		return fmt.Errorf("send homework: %w", err)
	}
	t.Step("send_clicked", "Clicked Send Homework")
	return env.Pause(ctx, 10*time.Second)
}

// pickClass opens the class dropdown and scrolls its list until name shows.
func pickClass(ctx context.Context, env *Env, name string) error {
	page := env.Page
	if err := waitClick(ctx, env, classDropdown, time.Second); err != nil {
		return err
	}
	if err := env.Pause(ctx, 2*time.Second); err != nil {
		return err
	}

	container := classContainer(name)
	if err := page.WaitPresent(ctx, container, longWait); err != nil {
		return err
	}
	option := classOption(name)
	for i := 0; i < classScrolls; i++ {
		if shown, _ := page.Visible(ctx, option); shown {
			break
		}
		if err := page.Evaluate(ctx, fmt.Sprintf("(%s).scrollTop += 100", container.JSPath()), nil); err != nil {
			return err
		}
		if err := page.Sleep(ctx, 300*time.Millisecond); err != nil {
			return err
		}
	}
	return waitClick(ctx, env, option, pauseBeforeClick)
}

// waitOptions polls a dependent select until it is enabled and populated.
// A select that never fills is used as is.
func waitOptions(ctx context.Context, env *Env, sel browser.Selector) error {
	if err := env.Page.WaitPresent(ctx, sel, longWait); err != nil {
		return err
	}
	for i := 0; i < selectPolls; i++ {
		st, err := stateOf(ctx, env.Page, sel)
		if err == nil && st.Found && !st.Disabled && st.Options > 1 {
			return nil
		}
		if err := env.Page.Sleep(ctx, pauseBeforeClick); err != nil {
			return err
		}
	}
	return nil
}
