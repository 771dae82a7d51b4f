package admin

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"

	"casestatus/internal/seeder"
	id "casestatus/pkg/domain"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body interface{}) error
	DELETE(path string) error
	SignInAs(userID id.UserID, sessionID id.SessionID) error
	SignOut()
	UseToken(token string)
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseHeader(name string) string
	GetLoginURL() string
}

// RegisterSteps registers admin-related step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &adminSteps{tc: tc}

	// Session steps
	ctx.Step(`^I am signed in as the seeded administrator$`, steps.signInAsAdmin)
	ctx.Step(`^I am signed in as a user who is not an administrator$`, steps.signInAsVisitor)
	ctx.Step(`^I am not signed in$`, steps.signOut)
	ctx.Step(`^I start a new session for the seeded administrator$`, steps.startAdminSession)
	ctx.Step(`^I revoke the saved session$`, steps.revokeSavedSession)
	ctx.Step(`^I use the saved session$`, steps.useSavedSession)

	// Dashboard steps
	ctx.Step(`^I open the admin dashboard$`, steps.openDashboard)
	ctx.Step(`^I should see the dashboard for "([^"]*)"$`, steps.shouldSeeDashboardFor)
	ctx.Step(`^I should be redirected to the login page$`, steps.shouldBeRedirectedToLogin)
}

type adminSteps struct {
	tc TestContext

	savedSessionID string
	savedToken     string
}

func (s *adminSteps) signInAsAdmin(ctx context.Context) error {
	return s.tc.SignInAs(seeder.DemoAdminUserID, seeder.DemoAdminSessionID)
}

func (s *adminSteps) signInAsVisitor(ctx context.Context) error {
	return s.tc.SignInAs(seeder.DemoVisitorUserID, seeder.DemoVisitorSessionID)
}

func (s *adminSteps) signOut(ctx context.Context) error {
	s.tc.SignOut()
	return nil
}

func (s *adminSteps) startAdminSession(ctx context.Context) error {
	if err := s.tc.POST("/dev/sessions", map[string]interface{}{
		"user_id": seeder.DemoAdminUserID.String(),
	}); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != 201 {
		return fmt.Errorf("expected session to be created, got status %d", status)
	}

	sessionID, err := s.stringField("session_id")
	if err != nil {
		return err
	}
	tok, err := s.stringField("token")
	if err != nil {
		return err
	}
	s.savedSessionID, s.savedToken = sessionID, tok
	return nil
}

func (s *adminSteps) revokeSavedSession(ctx context.Context) error {
	if s.savedSessionID == "" {
		return fmt.Errorf("no session saved")
	}
	return s.tc.DELETE("/admin/sessions/" + s.savedSessionID)
}

func (s *adminSteps) useSavedSession(ctx context.Context) error {
	if s.savedToken == "" {
		return fmt.Errorf("no session saved")
	}
	s.tc.UseToken(s.savedToken)
	return nil
}

func (s *adminSteps) openDashboard(ctx context.Context) error {
	return s.tc.GET("/admin/dashboard")
}

func (s *adminSteps) shouldSeeDashboardFor(ctx context.Context, email string) error {
	if status := s.tc.GetLastResponseStatus(); status != 200 {
		return fmt.Errorf("expected dashboard, got status %d", status)
	}
	actual, err := s.stringField("admin.email")
	if err != nil {
		return err
	}
	if actual != email {
		return fmt.Errorf("expected dashboard for %q but got %q", email, actual)
	}
	return nil
}

func (s *adminSteps) shouldBeRedirectedToLogin(ctx context.Context) error {
	if status := s.tc.GetLastResponseStatus(); status != 303 {
		return fmt.Errorf("expected redirect with status 303 but got %d", status)
	}
	if location := s.tc.GetLastResponseHeader("Location"); location != s.tc.GetLoginURL() {
		return fmt.Errorf("expected redirect to %q but got %q", s.tc.GetLoginURL(), location)
	}
	return nil
}

func (s *adminSteps) stringField(field string) (string, error) {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return "", err
	}
	str, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s is not a string: %T", field, value)
	}
	return str, nil
}
