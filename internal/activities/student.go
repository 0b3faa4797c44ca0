package activities

import (
	"context"
	"fmt"
	"time"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
	"github.com/xkilldash9x/seeqlo-runner/internal/observability"
)

var (
	spellingInput  = browser.XPath("//input[@placeholder='Type the word here...']")
	spellingSubmit = buttonWithText("Submit Answer")
	spellingNext   = buttonWithText("Next Word")

	checkAnswerFold = buttonContaining("check answer")
	currencySummary = browser.XPath(fmt.Sprintf("//*[%s or %s or %s]",
		browser.TextContainsFold("summary"), browser.TextContainsFold("completed"), browser.TextContainsFold("score")))

	newImageButton = anyOf("button", hasClass("bg-blue"), hasClass("bg-primary"), browser.ContainsFold("new image"))

	scoreText      = browser.XPath(fmt.Sprintf("//*[%s]", browser.TextContainsFold("score")))
	answerSubmit   = anyOf("button", hasClass("bg-green"), hasClass("bg-success"), browser.ContainsFold("submit answer"))
	nextPassage    = buttonContaining("next passage")
	nextExperiment = buttonContaining("next experiment", "next assignment")
	viewSummary    = buttonContaining("view summary")
	completeButton = buttonContaining("complete assignment")
	submitMyPart   = buttonContaining("submit my part")

	tryAgainButton  = browser.XPath("//button[contains(text(),'Try Again')]")
	highlightStyled = browser.XPath("//span[contains(@style,'background-color') and contains(@style,'yellow')]")
	highlightClass  = browser.XPath("//span[contains(@class,'yellow') or contains(@class,'bg-yellow')]")
	dropZone        = browser.XPath("//div[contains(@class,'dashed')][1]")
	checkAnswer     = browser.XPath("//button[contains(text(),'Check Answer')]")
)

// SpellingAnswers are typed into the spelling bee, one per word.
var SpellingAnswers = []string{"a", "b", "c"}

// SpellingBee answers each word and advances with Next Word.
func SpellingBee(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("SpellingBee")
	page := env.Page

	for idx, answer := range SpellingAnswers {
		word := fmt.Sprintf("word_%d", idx+1)
		t.Step(word, fmt.Sprintf("Attempting word %d of %d", idx+1, len(SpellingAnswers)))

		if err := page.WaitVisible(ctx, spellingInput, redirectWait); err != nil {
			return t.Fail(word, err, "Spelling input did not appear")
		}
		if err := page.Type(ctx, spellingInput, answer); err != nil {
			return t.Fail(word, err, "Failed to type answer")
		}
		if err := page.WaitVisible(ctx, spellingSubmit, redirectWait); err != nil {
			return t.Fail(word+"_submitted", err, "Submit Answer did not appear")
		}
		if err := page.JSClick(ctx, spellingSubmit); err != nil {
			return t.Fail(word+"_submitted", err, "Failed to click Submit Answer")
		}

		if idx < len(SpellingAnswers)-1 {
			if err := clickNextWord(ctx, env); err != nil {
				return t.Fail(word+"_next", err, "Failed to advance to the next word")
			}
			if err := env.Pause(ctx, time.Second); err != nil {
				return err
			}
		}
		if err := env.Pause(ctx, time.Second); err != nil {
			return err
		}
	}

	if err := clickNextWord(ctx, env); err != nil {
		return t.Fail("final_next", err, "Failed to click the final Next Word")
	}
	if err := env.Pause(ctx, 5*time.Second); err != nil {
		return err
	}
	t.Done("Completed all spelling bee answers")
	return nil
}

func clickNextWord(ctx context.Context, env *Env) error {
	if err := env.Page.WaitVisible(ctx, spellingNext, redirectWait); err != nil {
		return err
	}
	return env.Page.JSClick(ctx, spellingNext)
}

// Currency checks the empty answer and waits for the review summary.
func Currency(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("Currency")
	page := env.Page

	if err := page.WaitVisible(ctx, checkAnswerFold, shortWait); err != nil {
		return t.Fail("check_answer", err, "Check Answer did not appear")
	}
	if err := scrollAndClick(ctx, env, checkAnswerFold); err != nil {
		return t.Fail("check_answer", err, "Failed to click Check Answer")
	}
	t.Step("check_answer", "Clicked Check Answer")
	if err := env.Pause(ctx, 2*time.Second); err != nil {
		return err
	}

	if err := page.WaitPresent(ctx, currencySummary, shortWait); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.Warn("no_summary", observability.StatusNotFound, "No summary or completion message found")
	} else {
		t.Step("summary_detected", "Review summary detected")
	}
	t.Done("Currency activity completed")
	return nil
}

// ImageDescribe requests a new image and describes it in every text field.
func ImageDescribe(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("ImageDescribe")
	page := env.Page

	if err := page.WaitVisible(ctx, newImageButton, shortWait); err != nil {
		return t.Fail("new_image", err, "New Image button did not appear")
	}
	if err := scrollAndClick(ctx, env, newImageButton); err != nil {
		return t.Fail("new_image", err, "Failed to click New Image")
	}
	t.Step("new_image", "Clicked New Image")
	if err := env.Pause(ctx, 8*time.Second); err != nil {
		return err
	}

	n, err := fillTextboxes(ctx, env, t, "a", 0)
	if err != nil {
		return t.Fail("fill_textboxes", err, "Failed to fill text fields")
	}
	if n == 0 {
		t.Warn("no_textboxes", observability.StatusNotFound, "No text fields found after loading the image")
	}
	t.Done("Image Describe activity completed")
	return nil
}

// ReadRespond answers passages until a score shows or the questions run out.
func ReadRespond(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("ReadRespond")
	page := env.Page

	for round := 1; round <= env.rounds(); round++ {
		if shown, _ := page.Visible(ctx, scoreText); shown {
			t.Done("Score detected, activity complete")
			return nil
		}

		if err := page.WaitPresent(ctx, textboxes, shortWait); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Done("No more text fields, activity complete")
			return nil
		}
		n, err := page.Count(ctx, textboxes)
		if err != nil {
			return t.Fail("textbox_count", err, "Failed to count text fields")
		}
		if n < 2 {
			t.Warn("textbox_count", observability.StatusSkipped, fmt.Sprintf("Only %d text field found", n))
			t.Done("Read and Respond ended early")
			return nil
		}

		if _, err := fillTextboxes(ctx, env, t, "a", 2); err != nil {
			return t.Fail("fill_textboxes", err, "Failed to fill answers")
		}
		if err := scrollAndClick(ctx, env, answerSubmit); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Done("Submit button gone, activity complete")
			return nil
		}
		t.Step("submit_clicked", fmt.Sprintf("Submitted passage %d", round))
		if err := env.Pause(ctx, 2*time.Second); err != nil {
			return err
		}

		if shown, _ := page.Visible(ctx, nextPassage); !shown {
			t.Step("no_next_passage", "No Next Passage button, checking for score")
			continue
		}
		if err := scrollAndClick(ctx, env, nextPassage); err != nil {
			return t.Fail("next_passage", err, "Failed to click Next Passage")
		}
		t.Step("next_passage_clicked", "Clicked Next Passage")
		if err := env.Pause(ctx, 2*time.Second); err != nil {
			return err
		}
	}

	t.Finish(observability.StatusSkipped, fmt.Sprintf("Stopped after %d passages", env.rounds()))
	return nil
}

// ScienceLab fills both experiments and closes the assignment.
func ScienceLab(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("ScienceLab")
	page := env.Page

	if err := fillLab(ctx, env, t, "first_assignment_filled"); err != nil {
		return err
	}

	if err := page.WaitVisible(ctx, nextExperiment, shortWait); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		t.Warn("no_next_experiment", observability.StatusNotFound, "No Next Experiment button after the first fill")
	} else {
		if err := scrollAndClick(ctx, env, nextExperiment); err != nil {
			return t.Fail("next_experiment", err, "Failed to click Next Experiment")
		}
		t.Step("next_experiment_clicked", "Clicked Next Experiment")
		if err := env.Pause(ctx, 2*time.Second); err != nil {
			return err
		}
	}

	if err := fillLab(ctx, env, t, "second_assignment_filled"); err != nil {
		return err
	}

	if err := page.WaitVisible(ctx, viewSummary, shortWait); err == nil {
		if err := scrollAndClick(ctx, env, viewSummary); err != nil {
			return t.Fail("view_summary", err, "Failed to click View Summary")
		}
		t.Done("Clicked View Summary, assignment completed")
		return nil
	} else if ctx.Err() != nil {
		return ctx.Err()
	}
	t.Step("no_view_summary", "No View Summary button after the second fill")

	if err := page.WaitVisible(ctx, completeButton, shortWait); err != nil {
		return t.Fail("complete_assignment", err, "Complete Assignment did not appear")
	}
	if err := scrollAndClick(ctx, env, completeButton); err != nil {
		return t.Fail("complete_assignment", err, "Failed to click Complete Assignment")
	}
	if err := env.Pause(ctx, 2*time.Second); err != nil {
		return err
	}
	t.Done("Assignment completed")
	return nil
}

func fillLab(ctx context.Context, env *Env, t *Tracker, step string) error {
	if err := env.Page.WaitPresent(ctx, textboxes, shortWait); err != nil {
		return t.Fail(step, err, "No text fields found")
	}
	if _, err := fillTextboxes(ctx, env, t, "a", 0); err != nil {
		return t.Fail(step, err, "Failed to fill text fields")
	}
	return nil
}

// StoryStarter submits a part of the story each round until the text field
// or the submit button disappears.
func StoryStarter(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("StoryStarter")
	page := env.Page

	for round := 1; round <= env.rounds(); round++ {
		if err := page.WaitPresent(ctx, textboxes, shortWait); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Done("Text field no longer present, story complete")
			return nil
		}
		if err := page.Type(ctx, textboxes, "a"); err != nil {
			return t.Fail("textbox_found", err, "Failed to type story part")
		}
		if err := scrollAndClick(ctx, env, submitMyPart); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Done("Submit my part gone, story complete")
			return nil
		}
		t.Step("submit_clicked", fmt.Sprintf("Submitted story part %d", round))
		if err := env.Pause(ctx, 3*time.Second); err != nil {
			return err
		}
	}

	t.Finish(observability.StatusSkipped, fmt.Sprintf("Stopped after %d story parts", env.rounds()))
	return nil
}

// PartsOfSpeech drags each highlighted word onto the answer zone and checks
// it until the activity offers Try Again.
func PartsOfSpeech(ctx context.Context, env *Env) error {
	t := env.Journal.Begin("PartsOfSpeech")
	page := env.Page

	if err := env.Pause(ctx, 10*time.Second); err != nil {
		return err
	}

	for q := 1; q <= env.rounds(); q++ {
		question := fmt.Sprintf("question_%d", q)
		t.Step(question, fmt.Sprintf("Processing question %d", q))

		if done, _ := page.Exists(ctx, tryAgainButton); done {
			t.Done("Try Again appeared, activity completed")
			return nil
		}

		word, err := browser.First(ctx, page, shortWait, highlightStyled, highlightClass)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Step("no_more_questions", "No highlighted word left")
			break
		}
		if err := page.WaitPresent(ctx, dropZone, shortWait); err != nil {
			env.screenshot(ctx, t, "activepassive_assignment_error")
			return t.Fail(question, err, "Answer box did not appear")
		}

		if err := page.Drag(ctx, word, dropZone); err != nil {
			t.Warn("drag_fallback_"+fmt.Sprint(q), observability.StatusInProgress,
				"Drag failed, clicking word and answer box instead", observability.ErrorMessage(err))
			if err := clickPair(ctx, env, word, dropZone); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				env.screenshot(ctx, t, "activepassive_assignment_error")
				t.Warn(question, observability.StatusFailure,
					"Both drag and click fallback failed", observability.ErrorMessage(err))
				break
			}
		}

		if err := page.WaitVisible(ctx, checkAnswer, shortWait); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.Step("no_check_button", "No Check Answer button, assuming the activity is complete")
			break
		}
		if err := page.Click(ctx, checkAnswer); err != nil {
			return t.Fail("check_answer_"+fmt.Sprint(q), err, "Failed to click Check Answer")
		}
		if err := env.Pause(ctx, 4*time.Second); err != nil {
			return err
		}
	}

	t.Done("Completed all available questions")
	return nil
}

func clickPair(ctx context.Context, env *Env, first, second browser.Selector) error {
	if err := env.Page.Click(ctx, first); err != nil {
		return err
	}
	if err := env.Pause(ctx, pauseBeforeClick); err != nil {
		return err
	}
	return env.Page.Click(ctx, second)
}
