package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-league/internal/domain/decision"
	"github.com/riskibarqy/fantasy-league/internal/domain/event"
	"github.com/riskibarqy/fantasy-league/internal/platform/logging"
)

const synthesisReporterName = "SynthesisReporter"

type synthesisReporterEngine interface {
	Synthesize(ctx context.Context, gameweek int, competitive decision.CompetitiveContext, chipRec *ChipRecommendation) (decision.Rankings, error)
}

type synthesisReporterChipSource interface {
	Latest(gameweek int) (ChipRecommendation, bool)
}

type synthesisReporterStandingsSource interface {
	CompetitiveContext(ctx context.Context, teamID string) (decision.CompetitiveContext, error)
}

type synthesisReporterPublisher interface {
	Publish(ctx context.Context, e event.Event) (int64, error)
}

// SynthesisReporterService turns a finished weekly decision into a
// rankings snapshot (§4.9): once the coordinator has selected a team for
// a gameweek it asks the synthesis engine to join the cached analyses
// into a decision.Rankings record, then republishes a condensed version
// of it as an operator notification. standings supplies the manager's
// mini-league standing; when unavailable the synthesis engine falls
// back to a neutral competitive context, which classifies as a
// "defensive" strategy.
type SynthesisReporterService struct {
	engine    synthesisReporterEngine
	chips     synthesisReporterChipSource
	standings synthesisReporterStandingsSource
	publisher synthesisReporterPublisher
	teamID    string
	logger    *logging.Logger
}

func NewSynthesisReporterService(
	engine synthesisReporterEngine,
	chips synthesisReporterChipSource,
	standings synthesisReporterStandingsSource,
	publisher synthesisReporterPublisher,
	teamID string,
	logger *logging.Logger,
) *SynthesisReporterService {
	if logger == nil {
		logger = logging.Default()
	}
	return &SynthesisReporterService{
		engine:    engine,
		chips:     chips,
		standings: standings,
		publisher: publisher,
		teamID:    teamID,
		logger:    logger.With("component", "SynthesisReporterService"),
	}
}

func (r *SynthesisReporterService) Name() string { return synthesisReporterName }

func (r *SynthesisReporterService) SubscribedKinds() []event.Kind {
	return []event.Kind{event.KindTeamSelected}
}

func (r *SynthesisReporterService) HandleEvent(ctx context.Context, e event.Event) error {
	gameweek := e.AsTeamSelected().Gameweek
	return r.Report(ctx, gameweek)
}

// Report builds the rankings snapshot for gameweek and publishes it as a
// notification.info event. A failure to synthesize is logged, not
// returned: a missing rankings snapshot must not retry the whole event,
// since the team selection it describes has already been made.
func (r *SynthesisReporterService) Report(ctx context.Context, gameweek int) error {
	competitive := decision.CompetitiveContext{}
	if r.standings != nil {
		ctxv, err := r.standings.CompetitiveContext(ctx, r.teamID)
		if err != nil {
			r.logger.WarnContext(ctx, "competitive context unavailable, synthesizing with neutral standing", "error", err)
		} else {
			competitive = ctxv
		}
	}

	var chipRec *ChipRecommendation
	if rec, ok := r.chips.Latest(gameweek); ok {
		chipRec = &rec
	}

	rankings, err := r.engine.Synthesize(ctx, gameweek, competitive, chipRec)
	if err != nil {
		r.logger.ErrorContext(ctx, "synthesis failed", "gameweek", gameweek, "error", err)
		return nil
	}

	message := formatRankingsSummary(rankings)
	evt, err := event.Create(
		event.KindNotificationInfo,
		event.NewNotificationPayload("info", message),
		event.WithSource(synthesisReporterName),
	)
	if err != nil {
		r.logger.ErrorContext(ctx, "build notification event", "error", err)
		return nil
	}
	if _, err := r.publisher.Publish(ctx, evt); err != nil {
		r.logger.WarnContext(ctx, "publish rankings notification failed", "error", err)
	}
	return nil
}

func formatRankingsSummary(rankings decision.Rankings) string {
	var b strings.Builder
	fmt.Fprintf(&b, "GW%d rankings (%s strategy): captain %s", rankings.Gameweek, rankings.Strategy, rankings.Captain.PrimaryPlayerID)
	if rankings.Captain.DifferentialPlayerID != "" {
		fmt.Fprintf(&b, " (differential %s)", rankings.Captain.DifferentialPlayerID)
	}
	if len(rankings.TemplateRisks) > 0 {
		fmt.Fprintf(&b, "; %d template risk(s): %s", len(rankings.TemplateRisks), strings.Join(rankings.TemplateRisks, ", "))
	}
	return b.String()
}
