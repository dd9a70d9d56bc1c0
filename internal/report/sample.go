package report

import "github.com/yourusername/clarity-api/internal/model"

// SampleResumeText is the canned resume used by the "try a sample" flow.
// Requests carrying exactly this text bypass the upstream model.
const SampleResumeText = `Jordan Avery
Senior Software Engineer — Platform

Experience

Acme Cloud, Senior Software Engineer (2021–present)
- Led migration of the billing pipeline to event-driven processing, cutting invoice latency from 4h to 12min
- Reduced infrastructure spend by 28% by right-sizing the ingestion fleet and introducing spot capacity
- Mentored 4 engineers; two promoted to senior within 18 months
- Owned on-call runbooks for the payments tier, bringing MTTR from 45min to 11min

Northstar Labs, Software Engineer (2018–2021)
- Built the internal feature-flag service used by 30+ teams, serving 1.2B evaluations/day
- Shipped the customer-facing audit log, closing the top enterprise sales blocker that quarter
- Drove the Postgres 12 upgrade across 9 services with zero downtime
- Cut CI wall time 40% by parallelizing the integration suite

Skills: Go, Postgres, Kafka, Kubernetes, Terraform, gRPC

Education: B.S. Computer Science, University of Washington (2018)`

func sampleScore() *float64 {
	s := 86.0
	return &s
}

// SampleReport is the hardcoded last-resort report fixture, also served
// at /sample-report.json. Always rendered as full access.
var SampleReport = model.ResumeReport{
	Score:      sampleScore(),
	ScoreLabel: "Very strong",
	Summary: "This resume leads with outcomes and keeps the evidence concrete. " +
		"The biggest remaining gains are in trimming skill-list filler and surfacing scope earlier in each role.",
	Strengths: []string{
		"Nearly every bullet pairs an action with a measured result",
		"Scope is visible: team sizes, traffic volume, and dollar impact are stated",
		"Scannable structure with consistent role ordering",
	},
	Gaps: []string{
		"The first line of each role buries seniority signals below the company name",
		"Skills section is an undifferentiated list with no proficiency signal",
		"No summary line tying the two roles into a single trajectory",
		"Education line wastes a row that could carry a certification or talk",
	},
	Rewrites: []model.Rewrite{
		{
			Label:           "Clarity",
			Original:        "Owned on-call runbooks for the payments tier, bringing MTTR from 45min to 11min",
			Better:          "Cut payments-tier MTTR from 45 to 11 minutes by rewriting on-call runbooks and automating triage",
			EnhancementNote: "Lead with the result, then the mechanism",
		},
		{
			Label:           "Impact",
			Original:        "Built the internal feature-flag service used by 30+ teams, serving 1.2B evaluations/day",
			Better:          "Designed and ran the company-wide feature-flag service (30+ teams, 1.2B evaluations/day), unblocking weekly releases",
			EnhancementNote: "Name the business effect, not just the scale",
		},
		{
			Label:           "Phrasing",
			Original:        "Mentored 4 engineers; two promoted to senior within 18 months",
			Better:          "Coached 4 engineers through promotion cycles; 2 reached senior within 18 months",
			EnhancementNote: "Active verbs carry more weight than 'mentored'",
		},
	},
	NextSteps: []string{
		"Add a two-line summary connecting platform work to business outcomes",
		"Rank skills by depth instead of listing them flat",
		"Move the strongest metric in each role into its first bullet",
	},
	MissingWins: []string{
		"What did the 28% infrastructure saving translate to in absolute dollars?",
		"Which enterprise deal did the audit log actually close?",
		"What incident prompted the runbook rewrite, and what changed after?",
	},
}
