package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/riskibarqy/fantasy-league/external/fpl"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/domain/fixture"
	"github.com/riskibarqy/fantasy-league/internal/domain/gameweek"
	"github.com/riskibarqy/fantasy-league/internal/domain/player"
	"github.com/riskibarqy/fantasy-league/internal/domain/rawdata"
	"github.com/riskibarqy/fantasy-league/internal/domain/team"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

// Default cache lifetimes for the Data Gateway's four read-through
// endpoints (§4.5).
const (
	DefaultBootstrapCacheTTL = 6 * time.Hour
	DefaultFixturesCacheTTL  = 12 * time.Hour
	DefaultPlayerCacheTTL    = 24 * time.Hour
	DefaultLiveCacheTTL      = 60 * time.Second
)

const fplPublicIDPrefix = "fpl"

// dataGatewayProvider is the subset of fpl.Client the gateway needs. A
// narrow interface keeps the service testable against a fake upstream.
type dataGatewayProvider interface {
	FetchBootstrap(ctx context.Context) (fpl.Bootstrap, error)
	FetchFixtures(ctx context.Context, gameweek int) ([]fpl.FixtureRecord, error)
	FetchPlayerDetail(ctx context.Context, playerID int64) (fpl.PlayerDetail, error)
	FetchLive(ctx context.Context, gameweek int) (fpl.Live, error)
}

// dataGatewayCache is the subset of cache.Store the gateway needs, with
// per-key TTL since bootstrap/fixtures/player/live each carry a different
// lifetime.
type dataGatewayCache interface {
	Delete(ctx context.Context, key string)
	GetOrLoadWithTTL(ctx context.Context, key string, ttl time.Duration, loader func(context.Context) (any, error)) (any, error)
}

type dataGatewayPlayerWriter interface {
	UpsertPlayers(ctx context.Context, items []player.Player) error
}

type dataGatewayTeamWriter interface {
	UpsertTeams(ctx context.Context, items []team.Team) error
}

type dataGatewayFixtureWriter interface {
	UpsertFixtures(ctx context.Context, items []fixture.Fixture) error
}

// dataGatewayPublisher is the subset of eventbus.Bus the gateway needs to
// announce a completed UpdateAllData run.
type dataGatewayPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// DataGatewayConfig configures the gateway's league scoping and cache
// lifetimes. A zero value is normalized to the §4.5 defaults.
type DataGatewayConfig struct {
	LeagueID     string
	BootstrapTTL time.Duration
	FixturesTTL  time.Duration
	PlayerTTL    time.Duration
	LiveTTL      time.Duration
	MaxWorkers   int
}

func normalizeDataGatewayConfig(cfg DataGatewayConfig) DataGatewayConfig {
	if cfg.LeagueID == "" {
		cfg.LeagueID = "default"
	}
	if cfg.BootstrapTTL <= 0 {
		cfg.BootstrapTTL = DefaultBootstrapCacheTTL
	}
	if cfg.FixturesTTL <= 0 {
		cfg.FixturesTTL = DefaultFixturesCacheTTL
	}
	if cfg.PlayerTTL <= 0 {
		cfg.PlayerTTL = DefaultPlayerCacheTTL
	}
	if cfg.LiveTTL <= 0 {
		cfg.LiveTTL = DefaultLiveCacheTTL
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 2
	}
	return cfg
}

// DataUpdateResult reports what UpdateAllData persisted, mirroring the
// counts carried by the data-updated event payload.
type DataUpdateResult struct {
	PlayerCount   int
	TeamCount     int
	FixtureCount  int
	GameweekCount int
	CurrentGW     int
}

// DataGatewayService is the bounded, read-through client of §4.5: it
// fronts the upstream fantasy data API with a TTL cache, and orchestrates
// the bootstrap+fixtures fetch that seeds every downstream analyzer.
type DataGatewayService struct {
	provider      dataGatewayProvider
	cache         dataGatewayCache
	playerWriter  dataGatewayPlayerWriter
	teamWriter    dataGatewayTeamWriter
	fixtureWriter dataGatewayFixtureWriter
	gameweekRepo  gameweek.Repository
	rawDataRepo   rawdata.Repository
	publisher     dataGatewayPublisher
	cfg           DataGatewayConfig
	logger        *logging.Logger
}

func NewDataGatewayService(
	provider dataGatewayProvider,
	cache dataGatewayCache,
	playerWriter dataGatewayPlayerWriter,
	teamWriter dataGatewayTeamWriter,
	fixtureWriter dataGatewayFixtureWriter,
	gameweekRepo gameweek.Repository,
	rawDataRepo rawdata.Repository,
	publisher dataGatewayPublisher,
	cfg DataGatewayConfig,
	logger *logging.Logger,
) *DataGatewayService {
	if logger == nil {
		logger = logging.Default()
	}
	return &DataGatewayService{
		provider:      provider,
		cache:         cache,
		playerWriter:  playerWriter,
		teamWriter:    teamWriter,
		fixtureWriter: fixtureWriter,
		gameweekRepo:  gameweekRepo,
		rawDataRepo:   rawDataRepo,
		publisher:     publisher,
		cfg:           normalizeDataGatewayConfig(cfg),
		logger:        logger.With("component", "DataGatewayService"),
	}
}

// FetchBootstrap returns the aggregate players/teams/gameweeks record,
// cached under "bootstrap" for BootstrapTTL. A force refresh bypasses the
// cache; any upstream failure yields an empty record rather than an error
// (§4.5 Failure modes), so the pipeline stays responsive.
func (s *DataGatewayService) FetchBootstrap(ctx context.Context, force bool) fpl.Bootstrap {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataGatewayService.FetchBootstrap")
	defer span.End()

	const cacheKey = "bootstrap"
	if force {
		s.cache.Delete(ctx, cacheKey)
	}

	value, err := s.cache.GetOrLoadWithTTL(ctx, cacheKey, s.cfg.BootstrapTTL, func(ctx context.Context) (any, error) {
		return s.provider.FetchBootstrap(ctx)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "fetch bootstrap failed, returning empty record", "error", err)
		return fpl.Bootstrap{}
	}

	bootstrap, _ := value.(fpl.Bootstrap)
	return bootstrap
}

// FetchFixtures returns the fixture list for gw (or every fixture when
// gw <= 0), cached under "fixtures:<gw|all>" for FixturesTTL.
func (s *DataGatewayService) FetchFixtures(ctx context.Context, gw int, force bool) []fpl.FixtureRecord {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataGatewayService.FetchFixtures")
	defer span.End()

	cacheKey := fixturesCacheKey(gw)
	if force {
		s.cache.Delete(ctx, cacheKey)
	}

	value, err := s.cache.GetOrLoadWithTTL(ctx, cacheKey, s.cfg.FixturesTTL, func(ctx context.Context) (any, error) {
		return s.provider.FetchFixtures(ctx, gw)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "fetch fixtures failed, returning empty list", "gameweek", gw, "error", err)
		return nil
	}

	fixtures, _ := value.([]fpl.FixtureRecord)
	return fixtures
}

// FetchPlayerDetail returns one player's per-gameweek history, cached
// under "player:<id>" for PlayerTTL.
func (s *DataGatewayService) FetchPlayerDetail(ctx context.Context, playerID int64, force bool) fpl.PlayerDetail {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataGatewayService.FetchPlayerDetail")
	defer span.End()

	cacheKey := fmt.Sprintf("player:%d", playerID)
	if force {
		s.cache.Delete(ctx, cacheKey)
	}

	value, err := s.cache.GetOrLoadWithTTL(ctx, cacheKey, s.cfg.PlayerTTL, func(ctx context.Context) (any, error) {
		return s.provider.FetchPlayerDetail(ctx, playerID)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "fetch player detail failed, returning empty record", "player_id", playerID, "error", err)
		return fpl.PlayerDetail{}
	}

	detail, _ := value.(fpl.PlayerDetail)
	return detail
}

// FetchLive returns in-progress per-player statistics for gw, cached
// under "live:gw<n>" for LiveTTL (60s by default, far shorter than the
// other endpoints since the underlying data changes minute to minute).
func (s *DataGatewayService) FetchLive(ctx context.Context, gw int, force bool) fpl.Live {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataGatewayService.FetchLive")
	defer span.End()

	cacheKey := fmt.Sprintf("live:gw%d", gw)
	if force {
		s.cache.Delete(ctx, cacheKey)
	}

	value, err := s.cache.GetOrLoadWithTTL(ctx, cacheKey, s.cfg.LiveTTL, func(ctx context.Context) (any, error) {
		return s.provider.FetchLive(ctx, gw)
	})
	if err != nil {
		s.logger.WarnContext(ctx, "fetch live stats failed, returning empty record", "gameweek", gw, "error", err)
		return fpl.Live{}
	}

	live, _ := value.(fpl.Live)
	return live
}

// UpdateAllData fetches bootstrap and the full fixture list in parallel
// over a bounded worker pool, persists the derived players/teams/
// gameweeks/fixtures, and publishes a data-updated event carrying the
// resulting counts (§4.5).
func (s *DataGatewayService) UpdateAllData(ctx context.Context, force bool) (DataUpdateResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.DataGatewayService.UpdateAllData")
	defer span.End()

	pool, err := ants.NewPool(s.cfg.MaxWorkers)
	if err != nil {
		return DataUpdateResult{}, fmt.Errorf("create data gateway worker pool: %w", err)
	}
	defer pool.Release()

	var (
		bootstrap fpl.Bootstrap
		fixtures  []fpl.FixtureRecord
		workers   sync.WaitGroup
	)

	workers.Add(2)
	if err := pool.Submit(func() {
		defer workers.Done()
		bootstrap = s.FetchBootstrap(ctx, force)
	}); err != nil {
		workers.Done()
		return DataUpdateResult{}, fmt.Errorf("submit bootstrap fetch to worker pool: %w", err)
	}
	if err := pool.Submit(func() {
		defer workers.Done()
		fixtures = s.FetchFixtures(ctx, 0, force)
	}); err != nil {
		workers.Done()
		return DataUpdateResult{}, fmt.Errorf("submit fixtures fetch to worker pool: %w", err)
	}
	workers.Wait()

	teamsByRefID := make(map[int64]fpl.BootstrapTeam, len(bootstrap.Teams))
	for _, t := range bootstrap.Teams {
		teamsByRefID[t.ID] = t
	}

	teams := mapBootstrapTeamsToDomain(s.cfg.LeagueID, bootstrap.Teams)
	players := mapBootstrapElementsToDomain(s.cfg.LeagueID, bootstrap.Elements)
	gameweeks := mapBootstrapEventsToDomain(bootstrap.Events)
	mappedFixtures := mapFixtureRecordsToDomain(s.cfg.LeagueID, fixtures, teamsByRefID)

	if len(teams) > 0 && s.teamWriter != nil {
		if err := s.teamWriter.UpsertTeams(ctx, teams); err != nil {
			return DataUpdateResult{}, fmt.Errorf("upsert teams from bootstrap: %w", err)
		}
	}
	if len(players) > 0 && s.playerWriter != nil {
		if err := s.playerWriter.UpsertPlayers(ctx, players); err != nil {
			return DataUpdateResult{}, fmt.Errorf("upsert players from bootstrap: %w", err)
		}
	}
	if s.gameweekRepo != nil {
		for _, gw := range gameweeks {
			if err := s.gameweekRepo.Upsert(ctx, gw); err != nil {
				return DataUpdateResult{}, fmt.Errorf("upsert gameweek %d: %w", gw.Number, err)
			}
		}
	}
	if len(mappedFixtures) > 0 && s.fixtureWriter != nil {
		if err := s.fixtureWriter.UpsertFixtures(ctx, mappedFixtures); err != nil {
			return DataUpdateResult{}, fmt.Errorf("upsert fixtures from bootstrap: %w", err)
		}
	}

	s.recordRawPayloads(ctx, bootstrap, fixtures)

	currentGW := currentGameweekNumber(gameweeks)
	result := DataUpdateResult{
		PlayerCount:   len(players),
		TeamCount:     len(teams),
		FixtureCount:  len(mappedFixtures),
		GameweekCount: len(gameweeks),
		CurrentGW:     currentGW,
	}

	if s.publisher != nil {
		payload := event.NewDataUpdatedPayload(result.PlayerCount, result.TeamCount, result.FixtureCount, result.GameweekCount, result.CurrentGW)
		evt, err := event.Create(event.KindDataUpdated, payload, event.WithSource("DataGatewayService"))
		if err != nil {
			return result, fmt.Errorf("build data-updated event: %w", err)
		}
		if _, err := s.publisher.Publish(ctx, evt); err != nil {
			return result, fmt.Errorf("publish data-updated event: %w", err)
		}
	}

	return result, nil
}

// recordRawPayloads stores the raw upstream bootstrap/fixtures responses
// in the audit trail. Best-effort: a failure here never fails
// UpdateAllData, matching §4.5's "writes are best-effort" cache semantics
// extended to the audit store.
func (s *DataGatewayService) recordRawPayloads(ctx context.Context, bootstrap fpl.Bootstrap, fixtures []fpl.FixtureRecord) {
	if s.rawDataRepo == nil {
		return
	}

	now := time.Now().UTC()
	payloads := []rawdata.Payload{
		{
			Source:          "fpl",
			EntityType:      "bootstrap",
			EntityKey:       s.cfg.LeagueID,
			LeaguePublicID:  s.cfg.LeagueID,
			PayloadJSON:     fmt.Sprintf("{\"elements\":%d,\"teams\":%d,\"events\":%d}", len(bootstrap.Elements), len(bootstrap.Teams), len(bootstrap.Events)),
			SourceUpdatedAt: &now,
		},
		{
			Source:          "fpl",
			EntityType:      "fixtures",
			EntityKey:       s.cfg.LeagueID,
			LeaguePublicID:  s.cfg.LeagueID,
			PayloadJSON:     fmt.Sprintf("{\"count\":%d}", len(fixtures)),
			SourceUpdatedAt: &now,
		},
	}

	if err := s.rawDataRepo.UpsertMany(ctx, payloads); err != nil {
		s.logger.WarnContext(ctx, "record raw data gateway payloads failed", "error", err)
	}
}

func fixturesCacheKey(gw int) string {
	if gw <= 0 {
		return "fixtures:all"
	}
	return fmt.Sprintf("fixtures:%d", gw)
}

func currentGameweekNumber(gameweeks []gameweek.Gameweek) int {
	for _, gw := range gameweeks {
		if gw.IsCurrent {
			return gw.Number
		}
	}
	return 0
}

func mapBootstrapTeamsToDomain(leagueID string, items []fpl.BootstrapTeam) []team.Team {
	out := make([]team.Team, 0, len(items))
	for _, item := range items {
		out = append(out, team.Team{
			ID:       buildFPLTeamPublicID(leagueID, item.ID),
			LeagueID: leagueID,
			Name:     item.Name,
			Short:    item.ShortName,
		})
	}
	return out
}

func mapBootstrapElementsToDomain(leagueID string, items []fpl.BootstrapElement) []player.Player {
	out := make([]player.Player, 0, len(items))
	for _, item := range items {
		chance := 100
		if item.ChanceOfPlayingNextRound != nil {
			chance = *item.ChanceOfPlayingNextRound
		}

		out = append(out, player.Player{
			ID:               buildFPLPlayerPublicID(leagueID, item.ID),
			LeagueID:         leagueID,
			TeamID:           buildFPLTeamPublicID(leagueID, item.Team),
			Name:             item.WebName,
			Position:         mapElementTypeToPosition(item.ElementType),
			Price:            item.NowCost,
			PlayerRefID:      item.ID,
			Status:           player.AvailabilityStatus(item.Status),
			ChanceOfPlaying:  chance,
			Form:             parseFPLFloat(item.Form),
			TotalPoints:      item.TotalPoints,
			OwnershipPercent: parseFPLFloat(item.SelectedByPercent),
			Transfers24h:     item.TransfersInEvent - item.TransfersOutEvent,

			MinutesPlayed:        item.Minutes,
			ExpectedGoalsPer90:   parseFPLFloat(item.ExpectedGoalsPer90),
			ExpectedAssistsPer90: parseFPLFloat(item.ExpectedAssistsPer90),
		})
	}
	return out
}

func mapBootstrapEventsToDomain(items []fpl.BootstrapEvent) []gameweek.Gameweek {
	out := make([]gameweek.Gameweek, 0, len(items))
	for _, item := range items {
		deadline, _ := time.Parse(time.RFC3339, item.DeadlineAt)
		out = append(out, gameweek.Gameweek{
			ID:          buildFPLGameweekPublicID(item.ID),
			Number:      item.ID,
			DeadlineAt:  deadline,
			IsCurrent:   item.IsCurrent,
			IsNext:      item.IsNext,
			Finished:    item.Finished,
			DataChecked: item.DataChecked,
		})
	}
	return out
}

func mapFixtureRecordsToDomain(leagueID string, items []fpl.FixtureRecord, teamsByRefID map[int64]fpl.BootstrapTeam) []fixture.Fixture {
	out := make([]fixture.Fixture, 0, len(items))
	for _, item := range items {
		status := fixture.StatusScheduled
		if item.Finished {
			status = fixture.StatusFinished
		}

		kickoffAt, _ := time.Parse(time.RFC3339, item.KickoffTime)

		homeTeamID := buildFPLTeamPublicID(leagueID, item.TeamH)
		awayTeamID := buildFPLTeamPublicID(leagueID, item.TeamA)

		var winnerTeamID string
		if item.Finished && item.TeamHScore != nil && item.TeamAScore != nil {
			switch {
			case *item.TeamHScore > *item.TeamAScore:
				winnerTeamID = homeTeamID
			case *item.TeamAScore > *item.TeamHScore:
				winnerTeamID = awayTeamID
			}
		}

		out = append(out, fixture.Fixture{
			ID:           buildFPLFixturePublicID(leagueID, item.ID),
			LeagueID:     leagueID,
			Gameweek:     item.Event,
			HomeTeam:     teamsByRefID[item.TeamH].Name,
			AwayTeam:     teamsByRefID[item.TeamA].Name,
			HomeTeamID:   homeTeamID,
			AwayTeamID:   awayTeamID,
			FixtureRefID: item.ID,
			KickoffAt:    kickoffAt,
			Status:       status,
			WinnerTeamID: winnerTeamID,
			HomeScore:    item.TeamHScore,
			AwayScore:    item.TeamAScore,
		})
	}
	return out
}

// mapElementTypeToPosition maps bootstrap-static's numeric element_type
// (1=GK, 2=DEF, 3=MID, 4=FWD) onto the domain's position enum.
func mapElementTypeToPosition(elementType int) player.Position {
	switch elementType {
	case 1:
		return player.PositionGoalkeeper
	case 2:
		return player.PositionDefender
	case 3:
		return player.PositionMidfielder
	case 4:
		return player.PositionForward
	default:
		return player.PositionMidfielder
	}
}

func parseFPLFloat(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

func buildFPLTeamPublicID(leagueID string, teamRefID int64) string {
	return fplPublicIDPrefix + "-" + sanitizePublicIDSegment(leagueID) + "-team-" + fmt.Sprintf("%d", teamRefID)
}

func buildFPLPlayerPublicID(leagueID string, playerRefID int64) string {
	return fplPublicIDPrefix + "-" + sanitizePublicIDSegment(leagueID) + "-player-" + fmt.Sprintf("%d", playerRefID)
}

func buildFPLFixturePublicID(leagueID string, fixtureRefID int64) string {
	return fplPublicIDPrefix + "-" + sanitizePublicIDSegment(leagueID) + "-fixture-" + fmt.Sprintf("%d", fixtureRefID)
}

func buildFPLGameweekPublicID(number int) string {
	return fplPublicIDPrefix + "-gw-" + fmt.Sprintf("%d", number)
}

// sanitizePublicIDSegment folds a league id into the lowercase,
// dash-separated charset public ids are built from.
func sanitizePublicIDSegment(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return "league"
	}

	var builder strings.Builder
	lastDash := false
	for _, r := range value {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			builder.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			builder.WriteByte('-')
			lastDash = true
		}
	}

	out := strings.Trim(builder.String(), "-")
	if out == "" {
		return "league"
	}
	return out
}
