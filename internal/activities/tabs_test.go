package activities

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser/browsertest"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

func tabsPage(tabs ...string) *browsertest.Page {
	page := browsertest.NewPage()
	for _, tab := range tabs {
		page.Add(sidebarTab(tab), 1)
	}
	return page
}

func TestTourTabs(t *testing.T) {
	ctx := context.Background()

	t.Run("AllTabsRespond", func(t *testing.T) {
		page := tabsPage(TeacherTabs...)
		env, _ := newTestEnv(t, page)

		require.NoError(t, TourTabs(ctx, env, TeacherTabs))
		for _, tab := range TeacherTabs {
			assert.Equal(t, 1, page.CallCount("Click", sidebarTab(tab)), tab)
		}
		assert.Empty(t, page.Screenshots())
	})

	t.Run("FailedTabIsPhotographedAndSkipped", func(t *testing.T) {
		page := tabsPage("Dashboard", "Classroom", "Student Feedback")
		env, logs := newTestEnv(t, page)

		require.NoError(t, TourTabs(ctx, env, StudentTabs))

		shots := page.Screenshots()
		require.Len(t, shots, 1)
		assert.True(t, strings.HasPrefix(filepath.Base(shots[0]), "practice_error_"), shots[0])
		assert.Equal(t, 1, page.CallCount("Click", sidebarTab("Student Feedback")), "tour continues after a failure")
		assert.Contains(t, statuses(logs, "Navigation Test"), observability.StatusFailure)
		assert.Equal(t, observability.StatusSuccess, env.Journal.Phases()[0].Status)
	})

	t.Run("EveryTabFails", func(t *testing.T) {
		page := browsertest.NewPage()
		env, _ := newTestEnv(t, page)

		err := TourTabs(ctx, env, StudentTabs)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrAllTabsFailed)
		assert.Len(t, page.Screenshots(), len(StudentTabs))
	})
}

func TestTabSlug(t *testing.T) {
	assert.Equal(t, "student_feedback", tabSlug("Student Feedback"))
	assert.Equal(t, "my_desk", tabSlug("My Desk"))
}
