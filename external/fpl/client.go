// Package fpl is the outbound HTTP client for the upstream fantasy data
// API (§6.1). It fetches bootstrap, fixtures, player detail, and live
// gameweek data; the Data Gateway usecase owns caching and event
// publication, this client owns only the wire call.
package fpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
	"github.com/riskibarqy/fantasy-league/internal/platform/resilience"
)

const defaultBaseURL = "https://fantasy.premierleague.com/api"

// defaultTimeout matches §6.1's "Timeouts 30 s, retries none (the
// gateway relies on the scheduler's periodic invocation for eventual
// consistency)".
const defaultTimeout = 30 * time.Second

// ErrUpstreamUnavailable wraps non-2xx responses and transport failures,
// the transient error family of §7.
var ErrUpstreamUnavailable = crerr.New("fpl: upstream unavailable")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
	breakerOn  bool
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	httpClient.Timeout = timeout

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		logger:     logger.With("component", "fpl.Client"),
		breaker:    resilience.NewCircuitBreaker(breakerCfg.FailureThreshold, breakerCfg.OpenTimeout, breakerCfg.HalfOpenMaxReq),
		breakerOn:  breakerCfg.Enabled,
	}
}

// BootstrapElement is one entry of bootstrap-static's "elements" array
// (§6.1).
type BootstrapElement struct {
	ID                       int64  `json:"id"`
	Code                     int64  `json:"code"`
	WebName                  string `json:"web_name"`
	ElementType              int    `json:"element_type"`
	Team                     int64  `json:"team"`
	NowCost                  int64  `json:"now_cost"`
	TotalPoints              int    `json:"total_points"`
	Minutes                  int    `json:"minutes"`
	Status                   string `json:"status"`
	ChanceOfPlayingNextRound *int   `json:"chance_of_playing_next_round"`
	SelectedByPercent        string `json:"selected_by_percent"`
	Form                     string `json:"form"`
	GoalsScored              int    `json:"goals_scored"`
	Assists                  int    `json:"assists"`
	BPS                      int    `json:"bps"`
	CleanSheets              int    `json:"clean_sheets"`
	TransfersInEvent         int    `json:"transfers_in_event"`
	TransfersOutEvent        int    `json:"transfers_out_event"`
	CostChangeEvent          int    `json:"cost_change_event"`
	CostChangeStart          int    `json:"cost_change_start"`
	ExpectedGoals            string `json:"expected_goals"`
	ExpectedAssists          string `json:"expected_assists"`
	ExpectedGoalInvolvements string `json:"expected_goal_involvements"`
	ExpectedGoalsPer90       string `json:"expected_goals_per_90"`
	ExpectedAssistsPer90     string `json:"expected_assists_per_90"`
}

// BootstrapTeam is one entry of bootstrap-static's "teams" array.
type BootstrapTeam struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"short_name"`
}

// BootstrapEvent is one entry of bootstrap-static's "events" (gameweeks)
// array.
type BootstrapEvent struct {
	ID         int    `json:"id"`
	DeadlineAt string `json:"deadline_time"`
	Finished   bool   `json:"finished"`
	IsCurrent  bool   `json:"is_current"`
	IsNext     bool   `json:"is_next"`
	DataChecked bool  `json:"data_checked"`
}

// Bootstrap is the decoded response of GET /bootstrap-static/.
type Bootstrap struct {
	Elements []BootstrapElement `json:"elements"`
	Teams    []BootstrapTeam    `json:"teams"`
	Events   []BootstrapEvent   `json:"events"`
}

// FixtureRecord is one entry of GET /fixtures/?event={gw}.
type FixtureRecord struct {
	ID              int64  `json:"id"`
	Event           int    `json:"event"`
	TeamH           int64  `json:"team_h"`
	TeamA           int64  `json:"team_a"`
	TeamHDifficulty int    `json:"team_h_difficulty"`
	TeamADifficulty int    `json:"team_a_difficulty"`
	TeamHScore      *int   `json:"team_h_score"`
	TeamAScore      *int   `json:"team_a_score"`
	Finished        bool   `json:"finished"`
	KickoffTime     string `json:"kickoff_time"`
}

// PlayerHistoryEntry is one per-gameweek row of element-summary's
// "history".
type PlayerHistoryEntry struct {
	Round       int `json:"round"`
	TotalPoints int `json:"total_points"`
	Minutes     int `json:"minutes"`
}

// PlayerDetail is the decoded response of GET /element-summary/{id}/.
type PlayerDetail struct {
	History     []PlayerHistoryEntry `json:"history"`
	HistoryPast []map[string]any     `json:"history_past"`
	Fixtures    []map[string]any     `json:"fixtures"`
}

// LiveElementStats is one player's entry in GET /event/{gw}/live/.
type LiveElementStats struct {
	ID   int64 `json:"id"`
	Stats struct {
		Minutes                       int `json:"minutes"`
		GoalsScored                   int `json:"goals_scored"`
		Assists                       int `json:"assists"`
		CleanSheets                   int `json:"clean_sheets"`
		GoalsConceded                 int `json:"goals_conceded"`
		Saves                         int `json:"saves"`
		PenaltiesSaved                int `json:"penalties_saved"`
		PenaltiesMissed               int `json:"penalties_missed"`
		YellowCards                   int `json:"yellow_cards"`
		RedCards                      int `json:"red_cards"`
		OwnGoals                      int `json:"own_goals"`
		BonusPoints                   int `json:"bonus"`
		TotalPoints                   int `json:"total_points"`
		ClearancesBlocksInterceptions int `json:"clearances_blocks_interceptions"`
		Tackles                       int `json:"tackles"`
		Recoveries                    int `json:"recoveries"`
	} `json:"stats"`
}

// Live is the decoded response of GET /event/{gw}/live/.
type Live struct {
	Elements []LiveElementStats `json:"elements"`
}

// LeagueStandingEntry is one row of a classic league's standings table.
type LeagueStandingEntry struct {
	Entry     int64  `json:"entry"`
	EntryName string `json:"entry_name"`
	Rank      int    `json:"rank"`
	Total     int    `json:"total"`
}

// LeagueStandings is the decoded response of GET
// /leagues-classic/{id}/standings/.
type LeagueStandings struct {
	Standings struct {
		Results []LeagueStandingEntry `json:"results"`
	} `json:"standings"`
}

// FetchBootstrap retrieves the aggregate bootstrap endpoint.
func (c *Client) FetchBootstrap(ctx context.Context) (Bootstrap, error) {
	var out Bootstrap
	if err := c.getJSON(ctx, "/bootstrap-static/", &out); err != nil {
		return Bootstrap{}, err
	}
	return out, nil
}

// FetchFixtures retrieves fixtures, optionally scoped to one gameweek.
// gameweek <= 0 fetches every fixture.
func (c *Client) FetchFixtures(ctx context.Context, gameweek int) ([]FixtureRecord, error) {
	path := "/fixtures/"
	if gameweek > 0 {
		path = fmt.Sprintf("/fixtures/?event=%d", gameweek)
	}
	var out []FixtureRecord
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// FetchPlayerDetail retrieves one player's detailed history.
func (c *Client) FetchPlayerDetail(ctx context.Context, playerID int64) (PlayerDetail, error) {
	var out PlayerDetail
	path := fmt.Sprintf("/element-summary/%d/", playerID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return PlayerDetail{}, err
	}
	return out, nil
}

// FetchLive retrieves in-progress live statistics for a gameweek.
func (c *Client) FetchLive(ctx context.Context, gameweek int) (Live, error) {
	var out Live
	path := fmt.Sprintf("/event/%d/live/", gameweek)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return Live{}, err
	}
	return out, nil
}

// FetchLeagueStandings retrieves a classic league's current standings
// page (page 1 only - enough to locate the leader and a tracked entry).
func (c *Client) FetchLeagueStandings(ctx context.Context, leagueID int64) (LeagueStandings, error) {
	var out LeagueStandings
	path := fmt.Sprintf("/leagues-classic/%d/standings/", leagueID)
	if err := c.getJSON(ctx, path, &out); err != nil {
		return LeagueStandings{}, err
	}
	return out, nil
}

func (c *Client) getJSON(ctx context.Context, path string, dest any) error {
	if c.breakerOn {
		if err := c.breaker.Allow(); err != nil {
			return crerr.Wrapf(ErrUpstreamUnavailable, "circuit open: %v", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return crerr.Wrapf(err, "build request for %s", path)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.recordFailure()
		c.logger.WarnContext(ctx, "fpl upstream request failed", "path", path, "error", err)
		return crerr.Wrapf(ErrUpstreamUnavailable, "%s: %v", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.recordFailure()
		return crerr.Wrapf(err, "read response body for %s", path)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.recordFailure()
		c.logger.WarnContext(ctx, "fpl upstream non-2xx", "path", path, "status", resp.StatusCode)
		return crerr.Wrapf(ErrUpstreamUnavailable, "%s: status %d", path, resp.StatusCode)
	}

	if err := sonic.Unmarshal(body, dest); err != nil {
		c.recordFailure()
		return crerr.Wrapf(err, "decode response for %s", path)
	}

	c.recordSuccess()
	return nil
}

func (c *Client) recordFailure() {
	if c.breakerOn {
		c.breaker.RecordFailure()
	}
}

func (c *Client) recordSuccess() {
	if c.breakerOn {
		c.breaker.RecordSuccess()
	}
}
