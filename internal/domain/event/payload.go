package event

import "time"

// GetString reads a string field from the payload, or "" if absent/wrong type.
func (e Event) GetString(key string) string {
	if v, ok := e.Payload[key].(string); ok {
		return v
	}
	return ""
}

// GetInt reads an int field, tolerating the float64 shape JSON decoding
// produces for numeric payload values.
func (e Event) GetInt(key string) int {
	switch v := e.Payload[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// GetFloat reads a float64 field.
func (e Event) GetFloat(key string) float64 {
	switch v := e.Payload[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

// GetBool reads a bool field.
func (e Event) GetBool(key string) bool {
	v, _ := e.Payload[key].(bool)
	return v
}

// GetTime reads an RFC3339 timestamp field.
func (e Event) GetTime(key string) (time.Time, bool) {
	s, ok := e.Payload[key].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, false
		}
	}
	return t, true
}

// GameweekPlanningPayload is the typed view of a gameweek.planning event
// (§4.4 CheckDeadlines).
type GameweekPlanningPayload struct {
	Gameweek int
	Trigger  string // "48h", "24h", "6h"
	Deadline time.Time
}

func (e Event) AsGameweekPlanning() GameweekPlanningPayload {
	deadline, _ := e.GetTime("deadline")
	return GameweekPlanningPayload{
		Gameweek: e.GetInt("gameweek"),
		Trigger:  e.GetString("trigger"),
		Deadline: deadline,
	}
}

// NewGameweekPlanningPayload builds the payload map for CheckDeadlines.
func NewGameweekPlanningPayload(gameweek int, trigger string, deadline time.Time) map[string]any {
	return map[string]any{
		"gameweek": gameweek,
		"trigger":  trigger,
		"deadline": deadline.UTC().Format(time.RFC3339Nano),
	}
}

// DataUpdatedPayload is the typed view of a data.updated event (§4.5 UpdateAllData).
type DataUpdatedPayload struct {
	PlayerCount   int
	TeamCount     int
	FixtureCount  int
	GameweekCount int
	CurrentGW     int
}

func (e Event) AsDataUpdated() DataUpdatedPayload {
	return DataUpdatedPayload{
		PlayerCount:   e.GetInt("player_count"),
		TeamCount:     e.GetInt("team_count"),
		FixtureCount:  e.GetInt("fixture_count"),
		GameweekCount: e.GetInt("gameweek_count"),
		CurrentGW:     e.GetInt("current_gameweek"),
	}
}

func NewDataUpdatedPayload(playerCount, teamCount, fixtureCount, gameweekCount, currentGW int) map[string]any {
	return map[string]any{
		"player_count":     playerCount,
		"team_count":       teamCount,
		"fixture_count":    fixtureCount,
		"gameweek_count":   gameweekCount,
		"current_gameweek": currentGW,
	}
}

// AnalysisCompletedPayload is the typed view shared by the analyzer
// completion events (§4.7): each carries the gameweek it analyzed and,
// where relevant, the correlation id joining it to sibling analyses.
type AnalysisCompletedPayload struct {
	Gameweek   int
	AnalysisID string
}

func (e Event) AsAnalysisCompleted() AnalysisCompletedPayload {
	return AnalysisCompletedPayload{
		Gameweek:   e.GetInt("gameweek"),
		AnalysisID: e.GetString("analysis_id"),
	}
}

func NewAnalysisCompletedPayload(gameweek int, analysisID string) map[string]any {
	return map[string]any{
		"gameweek":    gameweek,
		"analysis_id": analysisID,
	}
}

// NotificationPayload is the typed view of notification.* events (§4.2/§4.3
// error containment publishes these).
type NotificationPayload struct {
	Level   string
	Message string
}

func NewNotificationPayload(level, message string) map[string]any {
	return map[string]any{
		"level":   level,
		"message": message,
	}
}

func (e Event) AsNotification() NotificationPayload {
	return NotificationPayload{
		Level:   e.GetString("level"),
		Message: e.GetString("message"),
	}
}

// DataRefreshRequestedPayload is the typed view of a data.refresh_requested
// event (§4.4 DailyRefresh).
type DataRefreshRequestedPayload struct {
	Trigger string
}

func (e Event) AsDataRefreshRequested() DataRefreshRequestedPayload {
	return DataRefreshRequestedPayload{Trigger: e.GetString("trigger")}
}

// NewDataRefreshRequestedPayload builds the payload for DailyRefresh, which
// always tags its trigger "scheduled-daily-refresh".
func NewDataRefreshRequestedPayload(trigger string) map[string]any {
	return map[string]any{"trigger": trigger}
}

// PriceCheckPayload is the typed view of a price.check event (§4.4
// PricePulse).
type PriceCheckPayload struct {
	Phase string // "pre" or "post"
}

func (e Event) AsPriceCheck() PriceCheckPayload {
	return PriceCheckPayload{Phase: e.GetString("phase")}
}

func NewPriceCheckPayload(phase string) map[string]any {
	return map[string]any{"phase": phase}
}

// GameweekCompletedPayload is the typed view of a gameweek.completed event
// (§4.4 WeeklyReview).
type GameweekCompletedPayload struct {
	Gameweek int
}

func (e Event) AsGameweekCompleted() GameweekCompletedPayload {
	return GameweekCompletedPayload{Gameweek: e.GetInt("gameweek")}
}

func NewGameweekCompletedPayload(gameweek int) map[string]any {
	return map[string]any{"gameweek": gameweek}
}

// ChipRecommendationPayload is the typed view of a chip.recommendation
// event (§4.10 step 5 chip arbitration input, SPEC_FULL's ChipAdvisor).
type ChipRecommendationPayload struct {
	Gameweek       int
	ChipName       string
	ExpectedValue  float64
	DeferTransfers bool
}

func (e Event) AsChipRecommendation() ChipRecommendationPayload {
	return ChipRecommendationPayload{
		Gameweek:       e.GetInt("gameweek"),
		ChipName:       e.GetString("chip_name"),
		ExpectedValue:  e.GetFloat("expected_value"),
		DeferTransfers: e.GetBool("defer_transfers"),
	}
}

func NewChipRecommendationPayload(gameweek int, chipName string, expectedValue float64, deferTransfers bool) map[string]any {
	return map[string]any{
		"gameweek":        gameweek,
		"chip_name":       chipName,
		"expected_value":  expectedValue,
		"defer_transfers": deferTransfers,
	}
}

// TeamSelectedPayload is the typed view of a team.selected event (§4.12
// step 8): the coordinator's finished weekly decision.
type TeamSelectedPayload struct {
	Gameweek      int
	TeamID        string
	CaptainID     string
	ViceCaptainID string
	ChipUsed      string
	TransferOutID string
	TransferInID  string
	Announcement  string
}

func (e Event) AsTeamSelected() TeamSelectedPayload {
	return TeamSelectedPayload{
		Gameweek:      e.GetInt("gameweek"),
		TeamID:        e.GetString("team_id"),
		CaptainID:     e.GetString("captain_id"),
		ViceCaptainID: e.GetString("vice_captain_id"),
		ChipUsed:      e.GetString("chip_used"),
		TransferOutID: e.GetString("transfer_out_id"),
		TransferInID:  e.GetString("transfer_in_id"),
		Announcement:  e.GetString("announcement"),
	}
}

func NewTeamSelectedPayload(gameweek int, teamID, captainID, viceCaptainID, chipUsed, transferOutID, transferInID, announcement string) map[string]any {
	return map[string]any{
		"gameweek":        gameweek,
		"team_id":         teamID,
		"captain_id":      captainID,
		"vice_captain_id": viceCaptainID,
		"chip_used":       chipUsed,
		"transfer_out_id": transferOutID,
		"transfer_in_id":  transferInID,
		"announcement":    announcement,
	}
}
