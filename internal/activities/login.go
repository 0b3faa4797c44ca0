package activities

import (
	"context"
	"errors"
	"fmt"

	"github.com/xkilldash9x/seeqlo-runner/internal/browser"
)

var (
	studentEmailInput    = browser.CSS("input[type='email']")
	studentPasswordInput = browser.CSS("input[type='password']")
	studentSubmitButton  = browser.CSS("button[type='submit']")
	studentNavBar        = browser.CSS("nav")

	teacherEmailInput    = browser.XPath("//input[contains(@placeholder,'example.com')]")
	teacherPasswordInput = browser.XPath("//input[@type='password']")
	teacherLoginButton   = browser.XPath("//button[contains(text(),'Log in')]")
)

// ErrMissingCredentials is returned when a role has no email or password.
var ErrMissingCredentials = errors.New("credentials are not configured")

// welcomeHeading matches the dashboard greeting shown after a teacher login.
func welcomeHeading(text string) browser.Selector {
	return browser.XPath(fmt.Sprintf("//h1[contains(normalize-space(.), %s)]", browser.Literal(text)))
}

// Login opens the login page and signs in as role. It returns once the
// landing page has rendered.
func Login(ctx context.Context, env *Env, role Role) error {
	t := env.Journal.Begin("Login")
	creds := env.Credentials(role)
	if !creds.Complete() {
		return t.Fail("credentials", fmt.Errorf("%s %w", role, ErrMissingCredentials), "Cannot log in")
	}

	loginURL := env.App.LoginURL()
	t.Step("open_login", "Opening login page "+loginURL)
	if err := env.Page.Navigate(ctx, loginURL); err != nil {
		return t.Fail("open_login", err, "Failed to open login page")
	}

	var err error
	if role == RoleTeacher {
		err = teacherLogin(ctx, env, t, loginURL)
	} else {
		err = studentLogin(ctx, env, t)
	}
	if err != nil {
		return err
	}
	t.Done("Login successful")
	return nil
}

func studentLogin(ctx context.Context, env *Env, t *Tracker) error {
	page := env.Page
	creds := env.App.Student

	t.Step("enter_email", "Entering email")
	if err := page.WaitPresent(ctx, studentEmailInput, shortWait); err != nil {
		return t.Fail("enter_email", err, "Email field did not appear")
	}
	if err := page.Type(ctx, studentEmailInput, creds.Email); err != nil {
		return t.Fail("enter_email", err, "Failed to enter email")
	}

	t.Step("enter_password", "Entering password")
	if err := page.Type(ctx, studentPasswordInput, creds.Password); err != nil {
		return t.Fail("enter_password", err, "Failed to enter password")
	}

	t.Step("submit", "Submitting login form")
	if err := page.Click(ctx, studentSubmitButton); err != nil {
		return t.Fail("submit", err, "Failed to click login button")
	}

	if err := page.WaitPresent(ctx, studentNavBar, longWait); err != nil {
		return t.Fail("await_dashboard", err, "Navigation bar did not appear after login")
	}
	return nil
}

func teacherLogin(ctx context.Context, env *Env, t *Tracker, loginURL string) error {
	page := env.Page
	creds := env.App.Teacher

	t.Step("enter_email", "Entering email")
	if err := page.WaitVisible(ctx, teacherEmailInput, longWait); err != nil {
		return t.Fail("enter_email", err, "Email field did not appear")
	}
	if err := page.Type(ctx, teacherEmailInput, creds.Email); err != nil {
		return t.Fail("enter_email", err, "Failed to enter email")
	}

	t.Step("enter_password", "Entering password")
	if err := page.Type(ctx, teacherPasswordInput, creds.Password); err != nil {
		return t.Fail("enter_password", err, "Failed to enter password")
	}

	t.Step("submit", "Clicking Log in")
	if err := page.Click(ctx, teacherLoginButton); err != nil {
		return t.Fail("submit", err, "Failed to click Log in")
	}

	err := env.poll(ctx, redirectWait, func() (bool, error) {
		current, err := page.URL(ctx)
		return err == nil && current != loginURL, err
	})
	if err != nil {
		return t.Fail("await_redirect", err, "Still on the login page after submitting")
	}

	if creds.WelcomeText != "" {
		if err := page.WaitPresent(ctx, welcomeHeading(creds.WelcomeText), longWait); err != nil {
			return t.Fail("await_dashboard", err, "Welcome heading did not appear")
		}
	}
	return nil
}
