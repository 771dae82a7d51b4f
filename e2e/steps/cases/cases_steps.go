package cases

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	GetResponseField(field string) (interface{}, error)
	GetLastResponseStatus() int
	GetLastResponseBody() []byte
}

// RegisterSteps registers case lookup step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &caseSteps{tc: tc}

	ctx.Step(`^I look up registration number "([^"]*)" with nationality "([^"]*)"$`, steps.lookUp)
	ctx.Step(`^I should see the case of "([^"]*)" with status "([^"]*)"$`, steps.shouldSeeCase)
	ctx.Step(`^I should be told no case matches registration number "([^"]*)" and nationality "([^"]*)"$`, steps.shouldSeeNotFound)
}

type caseSteps struct {
	tc TestContext
}

func (s *caseSteps) lookUp(ctx context.Context, registrationNumber, nationality string) error {
	query := url.Values{}
	query.Set("registration_number", registrationNumber)
	query.Set("nationality", nationality)
	return s.tc.GET("/cases/lookup?" + query.Encode())
}

func (s *caseSteps) shouldSeeCase(ctx context.Context, fullName, status string) error {
	if code := s.tc.GetLastResponseStatus(); code != 200 {
		return fmt.Errorf("expected a case, got status %d: %s", code, string(s.tc.GetLastResponseBody()))
	}
	if err := s.fieldEquals("case.full_name", fullName); err != nil {
		return err
	}
	return s.fieldEquals("case.status", status)
}

func (s *caseSteps) shouldSeeNotFound(ctx context.Context, registrationNumber, nationality string) error {
	if code := s.tc.GetLastResponseStatus(); code != 404 {
		return fmt.Errorf("expected not found, got status %d: %s", code, string(s.tc.GetLastResponseBody()))
	}
	if err := s.fieldEquals("error", "not_found"); err != nil {
		return err
	}
	if err := s.fieldEquals("query.registration_number", registrationNumber); err != nil {
		return err
	}
	return s.fieldEquals("query.nationality", nationality)
}

func (s *caseSteps) fieldEquals(field, expected string) error {
	value, err := s.tc.GetResponseField(field)
	if err != nil {
		return err
	}
	if actual := fmt.Sprintf("%v", value); actual != expected {
		return fmt.Errorf("expected %s to be %q but got %q", field, expected, actual)
	}
	return nil
}
