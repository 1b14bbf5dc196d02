package event

// Kind is the closed tag set from spec §6.2. Adding a new kind means adding
// one constant here and one entry in allKinds below; payload.go holds the
// typed payload builders and accessors.
type Kind string

const (
	KindSystemStartup     Kind = "system.startup"
	KindSystemShutdown    Kind = "system.shutdown"
	KindSystemHealthCheck Kind = "system.health_check"

	KindGameweekDeadlineApproaching Kind = "gameweek.deadline_approaching"
	KindGameweekPlanning            Kind = "gameweek.planning"
	KindGameweekStarted             Kind = "gameweek.started"
	KindGameweekCompleted           Kind = "gameweek.completed"

	KindDataRefreshRequested Kind = "data.refresh_requested"
	KindDataUpdated          Kind = "data.updated"
	KindPlayerDataUpdated    Kind = "data.player_updated"
	KindFixtureDataUpdated   Kind = "data.fixture_updated"

	KindPriceCheck          Kind = "price.check"
	KindPriceChangeDetected Kind = "price.change_detected"
	KindPriceRisePredicted  Kind = "price.rise_predicted"
	KindPriceFallPredicted  Kind = "price.fall_predicted"

	KindTeamSelectionRequested Kind = "team.selection_requested"
	KindTeamSelected           Kind = "team.selected"
	KindTransferRecommended    Kind = "team.transfer_recommended"
	KindTransferExecuted       Kind = "team.transfer_executed"
	KindCaptainSelected        Kind = "team.captain_selected"
	KindChipUsed               Kind = "team.chip_used"

	KindPlayerInjury     Kind = "player.injury"
	KindPlayerSuspended  Kind = "player.suspended"
	KindPlayerPriceLock  Kind = "player.price_locked"
	KindPlayerReturning  Kind = "player.returning"

	KindAnalysisRequested              Kind = "analysis.requested"
	KindAnalysisCompleted              Kind = "analysis.completed"
	KindAnalysisFixtureCompleted       Kind = "analysis.fixture_completed"
	KindAnalysisValuationCompleted     Kind = "analysis.valuation_completed"
	KindAnalysisDCCompleted            Kind = "analysis.dc_completed"
	KindAnalysisXGCompleted            Kind = "analysis.xg_completed"
	KindAnalysisValueRankingsCompleted Kind = "analysis.value_rankings_completed"

	KindDecisionRequired Kind = "decision.required"
	KindDecisionMade     Kind = "decision.made"

	KindNotificationInfo    Kind = "notification.info"
	KindNotificationWarning Kind = "notification.warning"
	KindNotificationError   Kind = "notification.error"

	KindIntelligenceDetected      Kind = "intelligence.detected"
	KindIntelligenceInjury        Kind = "intelligence.injury"
	KindIntelligenceRotationRisk  Kind = "intelligence.rotation_risk"
	KindIntelligenceSuspension    Kind = "intelligence.suspension"
	KindIntelligenceLineupLeak    Kind = "intelligence.lineup_leak"
	KindIntelligencePressConf     Kind = "intelligence.press_conference"

	KindChipRecommendation Kind = "chip.recommendation"
)

// allKinds is the authoritative closed set; Decode rejects anything absent
// from it.
var allKinds = map[Kind]struct{}{
	KindSystemStartup: {}, KindSystemShutdown: {}, KindSystemHealthCheck: {},
	KindGameweekDeadlineApproaching: {}, KindGameweekPlanning: {}, KindGameweekStarted: {}, KindGameweekCompleted: {},
	KindDataRefreshRequested: {}, KindDataUpdated: {}, KindPlayerDataUpdated: {}, KindFixtureDataUpdated: {},
	KindPriceCheck: {}, KindPriceChangeDetected: {}, KindPriceRisePredicted: {}, KindPriceFallPredicted: {},
	KindTeamSelectionRequested: {}, KindTeamSelected: {}, KindTransferRecommended: {}, KindTransferExecuted: {}, KindCaptainSelected: {}, KindChipUsed: {},
	KindPlayerInjury: {}, KindPlayerSuspended: {}, KindPlayerPriceLock: {}, KindPlayerReturning: {},
	KindAnalysisRequested: {}, KindAnalysisCompleted: {}, KindAnalysisFixtureCompleted: {}, KindAnalysisValuationCompleted: {}, KindAnalysisDCCompleted: {}, KindAnalysisXGCompleted: {}, KindAnalysisValueRankingsCompleted: {},
	KindDecisionRequired: {}, KindDecisionMade: {},
	KindNotificationInfo: {}, KindNotificationWarning: {}, KindNotificationError: {},
	KindIntelligenceDetected: {}, KindIntelligenceInjury: {}, KindIntelligenceRotationRisk: {}, KindIntelligenceSuspension: {}, KindIntelligenceLineupLeak: {}, KindIntelligencePressConf: {},
	KindChipRecommendation: {},
}

// Known reports whether k belongs to the closed set.
func (k Kind) Known() bool {
	_, ok := allKinds[k]
	return ok
}

// Channel returns the broker channel name for this kind under prefix.
func (k Kind) Channel(prefix string) string {
	return prefix + ":" + string(k)
}
