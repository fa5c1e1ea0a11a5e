package orchestrator

import (
	"fmt"
	"strings"

	"github.com/Akhil0736/luna-instagram-ai/internal/automation"
	"github.com/Akhil0736/luna-instagram-ai/internal/dispatch"
	"github.com/Akhil0736/luna-instagram-ai/internal/safety"
	"github.com/Akhil0736/luna-instagram-ai/internal/session"
	"github.com/Akhil0736/luna-instagram-ai/internal/types"
)

// maxRenderedRecommendations caps the strategy list in a coaching response;
// the full strategy stays on the session.
const maxRenderedRecommendations = 5

func renderGreeting(goal types.GoalContext) string {
	var b strings.Builder
	b.WriteString("Hey, I'm Luna, your Instagram growth coach.")
	if q := session.NextQuestion(goal); q != "" {
		b.WriteString(" ")
		b.WriteString(q)
	}
	return b.String()
}

func renderFollowUp(goal types.GoalContext) string {
	q := session.NextQuestion(goal)
	if q == "" {
		return "Got it."
	}
	return "Got it. " + q
}

func (o *Orchestrator) renderLaunch(s *session.ConversationSession, st *dispatch.Status, rejected []safety.Rejection) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Here's how we'll %s.\n\n", s.Context.Describe())

	fmt.Fprintf(&b, "%s\n", s.Strategy.Title)
	for i, rec := range s.Strategy.Recommendations {
		if i == maxRenderedRecommendations {
			fmt.Fprintf(&b, "  ... and %d more\n", len(s.Strategy.Recommendations)-i)
			break
		}
		fmt.Fprintf(&b, "  %d. %s\n", i+1, rec.Action)
	}

	counts := st.Counts()
	launched := len(st.Records) - counts[automation.StateFailed]
	fmt.Fprintf(&b, "\nI queued %d actions over the next %d days (execution %s).",
		launched, horizonDays(s), st.ExecutionID)
	if failed := counts[automation.StateFailed]; failed > 0 {
		fmt.Fprintf(&b, " %d could not be handed off and were recorded as failed.", failed)
	}
	if len(rejected) > 0 {
		fmt.Fprintf(&b, "\nI set aside %d planned actions that do not pass the safety bar.", len(rejected))
	}
	if s.Research != nil && s.Research.Degraded && o.degradedNotice {
		b.WriteString("\nHeads up: some research sources were unavailable, so this strategy leans on fewer signals than usual.")
	}
	return b.String()
}

func renderProgress(st *dispatch.Status) string {
	counts := st.Counts()
	done := counts[automation.StateCompleted] + counts[automation.StateFailed]
	return fmt.Sprintf("Still working: %d of %d actions finished (%.0f%%). Ask again in a bit for an update.",
		done, len(st.Records), st.Progress()*100)
}

func renderWrapUp(st *dispatch.Status) string {
	counts := st.Counts()
	if failed := counts[automation.StateFailed]; failed > 0 {
		return fmt.Sprintf("All done. %d actions completed and %d failed along the way. Start a new goal whenever you're ready.",
			counts[automation.StateCompleted], failed)
	}
	return fmt.Sprintf("All done. Every one of the %d actions completed. Start a new goal whenever you're ready.",
		len(st.Records))
}

func renderCompleted() string {
	return "This coaching run is finished. Reset the session when you want to chase a new goal."
}

func renderError(stage session.Stage, err error) string {
	return fmt.Sprintf("I hit a problem while %s: %v. Your progress is saved; send any message to retry.",
		stageVerb(stage), err)
}

func stageVerb(stage session.Stage) string {
	switch stage {
	case session.StageResearching:
		return "researching your niche"
	case session.StageStrategizing:
		return "putting the strategy together"
	case session.StagePlanning:
		return "laying out the schedule"
	case session.StageExecuting:
		return "handing work to the automation backend"
	case session.StageMonitoring:
		return "checking on your execution"
	default:
		return "working on your request"
	}
}

func horizonDays(s *session.ConversationSession) int {
	if s.Plan == nil {
		return 1
	}
	days := int(s.Plan.Horizon.Hours() / 24)
	if days < 1 {
		days = 1
	}
	return days
}
