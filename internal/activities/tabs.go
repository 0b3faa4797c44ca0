package activities

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

// Sidebar tabs visited by the navigation tours.
var (
	StudentTabs = []string{"Dashboard", "Classroom", "Practice", "Student Feedback"}
	TeacherTabs = []string{"Dashboard", "Classroom", "My Desk", "History", "Feedback"}
)

// ErrAllTabsFailed is returned when no tab of a tour could be opened.
var ErrAllTabsFailed = errors.New("every navigation tab failed")

func tabSlug(tab string) string {
	return strings.ReplaceAll(strings.ToLower(tab), " ", "_")
}

// TourTabs clicks every tab in turn. A failing tab is photographed and
// logged, and the tour moves on.
func TourTabs(ctx context.Context, env *Env, tabs []string) error {
	t := env.Journal.Begin("Navigation Test")
	page := env.Page

	failed := 0
	for _, tab := range tabs {
		slug := tabSlug(tab)
		t.Step("test_"+slug, "Testing navigation tab: "+tab)

		sel := sidebarTab(tab)
		err := page.WaitVisible(ctx, sel, longWait)
		if err == nil {
			err = page.Click(ctx, sel)
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failed++
			env.screenshot(ctx, t, slug+"_error")
			t.Warn(slug+"_error", observability.StatusFailure,
				fmt.Sprintf("Error testing navigation tab %s", tab), observability.ErrorMessage(err))
			continue
		}

		t.Step(slug+"_clicked", fmt.Sprintf("Navigation tab '%s' clicked", tab))
		if err := env.Pause(ctx, 2*time.Second); err != nil {
			return err
		}
		t.Step(slug+"_responsive", fmt.Sprintf("Navigation tab '%s' is responsive", tab))
	}

	if len(tabs) > 0 && failed == len(tabs) {
		return t.Fail("tour", ErrAllTabsFailed, "No navigation tab responded")
	}
	t.Done(fmt.Sprintf("All navigation tabs tested, %d of %d failed", failed, len(tabs)))
	return nil
}
