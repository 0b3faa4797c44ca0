package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

// ErrActivityNotFound is returned when no pending activity card matches.
var ErrActivityNotFound = errors.New("pending activity not found")

// Keywords matched against the text of pending activity cards.
const (
	KeywordSpellingBee   = "spelling bee"
	KeywordCurrency      = "currency"
	KeywordImageDescribe = "image describe"
	KeywordReadRespond   = "read and respond"
	KeywordScienceLab    = "virtual science lab"
	KeywordStoryStarter  = "story starter"
	KeywordPartsOfSpeech = "parts of speech"
)

const startButtonsQuery = "//button[contains(text(),'Start Activity') or contains(text(),'Start')]"

var (
	startButtons       = browser.XPath(startButtonsQuery)
	pendingActivities  = browser.XPath("//*[contains(text(),'Pending Activities')]")
	classroomLinkPlain = browser.XPath("//a[normalize-space(text())='Classroom']")
)

// sidebarTab addresses the label of a sidebar navigation entry.
func sidebarTab(name string) browser.Selector {
	return browser.XPath(fmt.Sprintf(
		"//span[contains(@class,'ml-3') and contains(@class,'text-sm') and contains(text(),%s)]",
		browser.Literal(name)))
}

// activityCard addresses the flex container around the i-th start button.
func activityCard(i int) browser.Selector {
	return browser.XPath(fmt.Sprintf("(%s)[%d]/ancestor::div[contains(@class,'flex')][1]", startButtonsQuery, i+1))
}

// OpenClassroom switches to the Classroom tab.
func OpenClassroom(ctx context.Context, env *Env, t *Tracker) error {
	t.Step("open_classroom", "Opening Classroom tab")
	if _, err := browser.ClickFirst(ctx, env.Page, shortWait, sidebarTab("Classroom"), classroomLinkPlain); err != nil {
		return err
	}
	return env.Pause(ctx, 2*time.Second)
}

// StartPendingActivity opens the Classroom tab and starts the first
// pending activity whose card mentions keyword, ignoring case.
func StartPendingActivity(ctx context.Context, env *Env, keyword string) error {
	t := env.Journal.Begin("StartActivity")
	page := env.Page

	if err := OpenClassroom(ctx, env, t); err != nil {
		return t.Fail("open_classroom", err, "Failed to open Classroom tab")
	}

	t.Step("scroll_pending", "Scrolling to Pending Activities")
	if err := page.WaitPresent(ctx, pendingActivities, shortWait); err != nil {
		return t.Fail("scroll_pending", err, "Pending Activities section did not appear")
	}
	if err := page.ScrollIntoView(ctx, pendingActivities, false); err != nil {
		return t.Fail("scroll_pending", err, "Failed to scroll to Pending Activities")
	}
	if err := env.Pause(ctx, time.Second); err != nil {
		return err
	}
	if err := page.ScrollBy(ctx, 0, 200); err != nil {
		return t.Fail("scroll_pending", err, "Failed to scroll past the section header")
	}

	n, err := page.Count(ctx, startButtons)
	if err != nil {
		return t.Fail("find_activity", err, "Failed to list start buttons")
	}
	keyword = strings.ToLower(keyword)
	t.Step("find_activity", fmt.Sprintf("Looking for %q among %d activities", keyword, n))

	for i := 0; i < n; i++ {
		text, err := page.Text(ctx, activityCard(i))
		if err != nil {
			// Buttons outside a card are not activities.
			continue
		}
		if !strings.Contains(strings.ToLower(text), keyword) {
			continue
		}

		button := startButtons.Nth(i)
		if err := page.ScrollIntoView(ctx, button, true); err != nil {
			return t.Fail("start_activity", err, "Failed to scroll to start button")
		}
		if err := env.Pause(ctx, 500*time.Millisecond); err != nil {
			return err
		}
		if err := page.JSClick(ctx, button); err != nil {
			return t.Fail("start_activity", err, "Failed to click start button")
		}
		if err := env.Pause(ctx, 3*time.Second); err != nil {
			return err
		}
		t.Done(fmt.Sprintf("Started activity matching %q", keyword))
		return nil
	}

	return t.Abandon(observability.StatusNotFound,
		fmt.Errorf("%w: %q", ErrActivityNotFound, keyword),
		fmt.Sprintf("No pending activity matches %q", keyword))
}
