package llm

import (
	"fmt"

	"github.com/moralgraph/moralgraph-backend-go/internal/models"
)

const judgeSystemPrompt = "You are a moral philosopher scoring scenarios on a two-axis morality graph. " +
	"The y-axis is the weight of the act itself, from -1 (gravely wrong) to +1 (profoundly good). " +
	"The x-axis is the purity of the actor's motive, from -1 (entirely self-serving or malicious) to +1 (entirely selfless). " +
	"When you are uncertain, express disagreement as a range per axis. " +
	"Output ONLY a JSON object with fields x, y, y_min, y_max, x_min, x_max. All values must be numbers in [-1, 1]."

const deonticTemplate = "Judge the scenario under a deontic reading: score the act by what duty and rule " +
	"permit or forbid, regardless of how it turned out.\n\nThe act: %s\nThe stated motive: %s\n\n" +
	"Respond with the JSON object only."

const utilitarianTemplate = "Judge the scenario under a utilitarian reading: score the act by the balance " +
	"of benefit and harm it produced or could reasonably be expected to produce.\n\n" +
	"The act: %s\nThe stated motive: %s\n\nRespond with the JSON object only."

// buildJudgePrompt interpolates the action and intent into the template for
// the given mode. Mode is validated at the handler boundary; an unknown mode
// here falls back to the deontic reading.
func buildJudgePrompt(action, intent, mode string) string {
	switch mode {
	case models.ModeUtilitarian:
		return fmt.Sprintf(utilitarianTemplate, action, intent)
	default:
		return fmt.Sprintf(deonticTemplate, action, intent)
	}
}
