package activities

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser/browsertest"
	"github.com/xkilldash9x/seeqlo-runner/internal/config"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

// wizardPage renders My Desk and a complete assignment wizard offering kinds.
func wizardPage(a config.AssignmentConfig, kinds ...string) *browsertest.Page {
	page := browsertest.NewPage().
		Add(sidebarTab("My Desk"), 1).
		Add(createAssignment, 1).
		Add(continueDetails, 1).
		Add(classDropdown, 1).
		Add(classContainer(a.ClassName), 1).
		Add(classOption(a.ClassName), 1).
		AddSelect(gradeSelect, "Select Grade", "Grade 6", "Grade 7").
		AddSelect(subjectSelect, "Select Subject", "Mathematics", "Science").
		AddSelect(unitSelect, "Select Unit", "Numbers", "Algebra").
		Add(dueDateInput, 1).
		Add(descriptionInput, 1).
		Add(generateAI, 1).
		Add(sendHomework, 1)
	for _, kind := range kinds {
		page.Add(typeCard(kind), 1)
	}
	page.OnEvaluate("disabled", elementState{Found: true, Options: 3}, nil)
	return page
}

func TestTeacherAssignment(t *testing.T) {
	app := testApp()
	page := wizardPage(app.Assignment, app.Assignment.Type)
	env, logs := newTestEnv(t, page)

	require.NoError(t, TeacherAssignment(context.Background(), env))

	assert.Equal(t, 1, page.CallCount("Click", sidebarTab("My Desk")))
	assert.Equal(t, 1, page.CallCount("Click", typeCard(app.Assignment.Type)))
	assert.Equal(t, 1, page.CallCount("Click", classOption(app.Assignment.ClassName)))
	assert.Equal(t, []string{"2025-03-17"}, page.Typed(dueDateInput), "due date is today plus due_in_days")
	assert.Equal(t, []string{app.Assignment.Description}, page.Typed(descriptionInput))
	assert.Equal(t, 1, page.CallCount("Click", generateAI))
	assert.Equal(t, 1, page.CallCount("Click", sendHomework))
	assert.Contains(t, statuses(logs, "Assignment"), observability.StatusSuccess)
}

func TestCreateAssignment_TypeFallsBackToAnyText(t *testing.T) {
	app := testApp()
	page := wizardPage(app.Assignment).Add(anyWithText("True/False"), 1)
	env, _ := newTestEnv(t, page)

	require.NoError(t, CreateAssignment(context.Background(), env, "True/False"))
	assert.Equal(t, 1, page.CallCount("Click", anyWithText("True/False")))
}

func TestCreateAssignment_ClassMissing(t *testing.T) {
	app := testApp()
	page := wizardPage(app.Assignment, "Matching").
		Remove(classContainer(app.Assignment.ClassName))
	env, logs := newTestEnv(t, page)

	err := CreateAssignment(context.Background(), env, "Matching")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Error filling Matching details")

	shots := page.Screenshots()
	require.Len(t, shots, 1)
	assert.True(t, strings.HasPrefix(filepath.Base(shots[0]), "matching_details_error_"), shots[0])
	assert.Len(t, errorEntries(logs), 1)
	assert.Zero(t, page.CallCount("Click", sendHomework))
}

func TestCreateAssignment_ScrollsClassList(t *testing.T) {
	app := testApp()
	page := wizardPage(app.Assignment, "Matching").Hide(classOption(app.Assignment.ClassName))
	env, _ := newTestEnv(t, page)

	err := CreateAssignment(context.Background(), env, "Matching")
	require.Error(t, err, "a class that never shows cannot be clicked")

	scrolls := 0
	for _, c := range page.Calls() {
		if c.Op == "Evaluate" && strings.Contains(c.Arg, "scrollTop += 100") {
			scrolls++
		}
	}
	assert.Equal(t, classScrolls, scrolls)
}

func TestTeacherAssignmentAll(t *testing.T) {
	app := testApp()
	app.Assignment.Types = []string{"Multiple Choice", "True/False", "Matching"}
	page := wizardPage(app.Assignment, "Multiple Choice", "Matching")
	env, logs := newTestEnv(t, page)
	env.App = app

	err := TeacherAssignmentAll(context.Background(), env)
	require.Error(t, err, "True/False is not offered on its own")

	// Mixed assignment plus Multiple Choice were sent before the failure.
	assert.Equal(t, 2, page.CallCount("Click", sendHomework))
	assert.Contains(t, statuses(logs, "Assignment"), observability.StatusSkipped)
}

func TestCreateMixedAssignment_NothingSelectable(t *testing.T) {
	app := testApp()
	page := wizardPage(app.Assignment)
	env, _ := newTestEnv(t, page)

	err := CreateMixedAssignment(context.Background(), env, app.Assignment.Types)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No assignment type could be selected")
	assert.Zero(t, page.CallCount("Click", continueDetails))
}

func TestWaitOptions_GivesUpQuietly(t *testing.T) {
	page := browsertest.NewPage().AddSelect(subjectSelect, "Select Subject")
	page.OnEvaluate("disabled", elementState{Found: true, Disabled: true, Options: 1}, nil)
	env, _ := newTestEnv(t, page)

	require.NoError(t, waitOptions(context.Background(), env, subjectSelect))
	assert.Equal(t, time.Duration(selectPolls)*pauseBeforeClick, page.Slept())
}

func TestLooseTerm(t *testing.T) {
	tests := map[string]string{
		"Grade 7":     "7",
		"Mathematics": "Mathematic",
		"Numbers":     "Number",
		"Unit 12":     "12",
		"":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, looseTerm(in), in)
	}
}

func TestDueDate(t *testing.T) {
	assert.Equal(t, "2025-03-17", dueDate(fixedNow, 14))
	assert.Equal(t, "2025-03-03", dueDate(fixedNow, 0))
	assert.Equal(t, "2025-04-02", dueDate(fixedNow, 30))
}
