package e2e

import (
	"github.com/cucumber/godog"

	"casestatus/e2e/steps/admin"
	"casestatus/e2e/steps/cases"
	"casestatus/e2e/steps/common"
)

// RegisterSteps registers all step definitions
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	admin.RegisterSteps(ctx, tc)
	cases.RegisterSteps(ctx, tc)
}
