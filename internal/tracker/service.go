package tracker

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/emiliopalmerini/ccptracker/internal/domain"
	"github.com/emiliopalmerini/ccptracker/internal/ports"
	"github.com/emiliopalmerini/ccptracker/internal/util"
)

// Messages shown to the user by the host.
const (
	RatedMessageFormat   = "✅ Satisfaction rating saved (%s/5)"
	NothingToRateMessage = "⚠️ No conversation to rate. Please enter a question first."
	RatingInvitation     = "💡 Rate satisfaction: enter 1-5 in your next prompt\n" +
		"[1] Very Poor  [2] Poor  [3] Average  [4] Good  [5] Excellent"
)

// PromptEvent is a submitted prompt.
type PromptEvent struct {
	SessionID string
	Prompt    string
}

// ResponseEvent signals that the assistant finished its turn.
type ResponseEvent struct {
	SessionID      string
	TranscriptPath string
	StopHookActive bool
}

// Project identifies the working directory the hooks run in.
type Project struct {
	Path string
	Name string
}

// Service correlates prompt, response and rating events into ledger rows.
// Every transition runs inside SessionStore.Update, so the session lock is
// always taken before the ledger lock.
type Service struct {
	ledger    ports.LedgerStore
	sessions  ports.SessionStore
	extractor ports.TranscriptExtractor
	metrics   ports.MetricsExporter
	archive   ports.ConversationArchive
	logger    ports.Logger
	project   Project

	now   func() time.Time
	newID func() string
}

// NewService creates a new tracker service
func NewService(
	ledger ports.LedgerStore,
	sessions ports.SessionStore,
	extractor ports.TranscriptExtractor,
	metrics ports.MetricsExporter,
	logger ports.Logger,
	project Project,
) *Service {
	return &Service{
		ledger:    ledger,
		sessions:  sessions,
		extractor: extractor,
		metrics:   metrics,
		logger:    logger,
		project:   project,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithArchive mirrors every changed row into archive.
func (s *Service) WithArchive(archive ports.ConversationArchive) *Service {
	s.archive = archive
	return s
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// WithIDGenerator replaces the session id generator used when the host
// sends none.
func (s *Service) WithIDGenerator(newID func() string) *Service {
	s.newID = newID
	return s
}

// OnPromptSubmit handles a submitted prompt. A prompt matching the rating
// grammar is consumed as a rating and blocked; anything else opens a new
// conversation row and proceeds.
func (s *Service) OnPromptSubmit(ctx context.Context, ev PromptEvent) (domain.HookDecision, error) {
	if star, ok := domain.ParseRating(ev.Prompt); ok {
		return s.rate(ctx, star)
	}
	return s.track(ctx, ev)
}

func (s *Service) rate(ctx context.Context, star string) (domain.HookDecision, error) {
	decision := domain.Block(NothingToRateMessage)
	rated := false

	err := s.sessions.Update(ctx, func(current *domain.SessionState) (*domain.SessionState, error) {
		if current == nil {
			s.logger.Debug(fmt.Sprintf("Rating %s received with no pending session", star))
			return nil, nil
		}

		last, err := s.ledger.ReadLast(ctx)
		if err != nil {
			return current, err
		}
		if last == nil {
			s.logger.Debug(fmt.Sprintf("Rating %s received but the ledger has no row for session %s", star, current.SessionID))
			return nil, nil
		}

		patch := domain.Patch{
			domain.ColStar:    star,
			domain.ColStarDtm: util.FormatLocal(s.now()),
		}
		if _, err := s.ledger.MutateLast(ctx, patch); err != nil {
			return current, err
		}

		s.logger.Debug(fmt.Sprintf("Rating %s saved for session %s", star, current.SessionID))
		decision = domain.Block(fmt.Sprintf(RatedMessageFormat, star))
		rated = true
		return nil, nil
	})
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to save rating: %v", err))
		return domain.Proceed(""), fmt.Errorf("save rating: %w", err)
	}

	if rated {
		value, _ := strconv.Atoi(star)
		if err := s.metrics.ExportRating(ctx, s.project.Name, value); err != nil {
			s.logger.Error(fmt.Sprintf("Failed to export rating: %v", err))
		}
		s.archiveLast(ctx)
	}
	return decision, nil
}

func (s *Service) track(ctx context.Context, ev PromptEvent) (domain.HookDecision, error) {
	sessionID := ev.SessionID
	if sessionID == "" {
		sessionID = s.newID()
	}
	now := s.now()
	timestamp := util.FormatLocal(now)
	appended := false

	err := s.sessions.Update(ctx, func(current *domain.SessionState) (*domain.SessionState, error) {
		last, err := s.ledger.ReadLast(ctx)
		if err != nil {
			return current, err
		}
		if current != nil && current.SessionID == sessionID && last != nil &&
			last.AwaitingResponse() && last.Request == ev.Prompt {
			s.logger.Debug(fmt.Sprintf("Prompt for session %s already recorded", sessionID))
			return current, nil
		}

		id := util.FormatID(now)
		if last != nil {
			id = nextRowID(last.ID, id)
		}
		rec := domain.ConversationRecord{
			ID:               id,
			ProjectPath:      s.project.Path,
			ProjectName:      s.project.Name,
			Request:          ev.Prompt,
			RequestDtm:       timestamp,
			RequestTokensEst: strconv.FormatInt(domain.EstimateTokens(ev.Prompt), 10),
		}
		if err := s.ledger.Append(ctx, rec); err != nil {
			return current, err
		}
		appended = true

		return &domain.SessionState{
			SessionID:   sessionID,
			Timestamp:   timestamp,
			ProjectPath: s.project.Path,
			ProjectName: s.project.Name,
		}, nil
	})
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to record prompt: %v", err))
		return domain.Proceed(""), fmt.Errorf("record prompt: %w", err)
	}

	if appended {
		s.logger.Debug(fmt.Sprintf("Recorded prompt for session %s", sessionID))
		s.archiveLast(ctx)
	}
	return domain.Proceed(""), nil
}

// nextRowID keeps row ids unique and increasing when two prompts land in
// the same second.
func nextRowID(lastID, candidate string) string {
	if lastID == "" || len(candidate) > len(lastID) || (len(candidate) == len(lastID) && candidate > lastID) {
		return candidate
	}
	n, err := strconv.ParseInt(lastID, 10, 64)
	if err != nil {
		return candidate
	}
	return strconv.FormatInt(n+1, 10)
}

// OnResponseReady fills the last row with the finished turn. Without a
// pending session it does nothing. It never blocks.
func (s *Service) OnResponseReady(ctx context.Context, ev ResponseEvent) (domain.HookDecision, error) {
	if ev.StopHookActive {
		s.logger.Debug("Stop hook already active, skipping")
		return domain.Proceed(""), nil
	}

	var exported *ports.ConversationMetrics

	err := s.sessions.Update(ctx, func(current *domain.SessionState) (*domain.SessionState, error) {
		if current == nil {
			s.logger.Debug("Response ready with no pending session")
			return nil, nil
		}

		last, err := s.ledger.ReadLast(ctx)
		if err != nil {
			return current, err
		}
		if last == nil {
			s.logger.Debug("Response ready but the ledger is empty")
			return current, nil
		}

		projectPath := current.ProjectPath
		if projectPath == "" {
			projectPath = s.project.Path
		}
		turn, err := s.extractor.Extract(ev.TranscriptPath, projectPath)
		if err != nil {
			s.logger.Error(fmt.Sprintf("Failed to read transcript: %v", err))
		}
		if turn == nil {
			turn = &domain.TranscriptTurn{}
		}

		if !last.AwaitingResponse() && last.Response == turn.Text {
			s.logger.Debug(fmt.Sprintf("Response for session %s already recorded", current.SessionID))
			return current, nil
		}

		now := util.FormatLocal(s.now())
		started := last.RequestDtm
		if started == "" {
			started = current.Timestamp
		}

		patch, m := s.responsePatch(last, turn, started, now)
		if _, err := s.ledger.MutateLast(ctx, patch); err != nil {
			return current, err
		}
		exported = m

		s.logger.Debug(fmt.Sprintf("Recorded response for session %s: model=%s, tools=%d, cost=%s",
			current.SessionID, patch[domain.ColModel], len(turn.Tools), patch[domain.ColEstimatedCost]))

		next := *current
		next.Timestamp = now
		return &next, nil
	})
	if err != nil {
		s.logger.Error(fmt.Sprintf("Failed to record response: %v", err))
		return domain.Proceed(""), fmt.Errorf("record response: %w", err)
	}

	if exported == nil {
		return domain.Proceed(""), nil
	}

	if err := s.metrics.ExportConversation(ctx, exported); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to export metrics: %v", err))
	}
	s.archiveLast(ctx)
	return domain.Proceed(RatingInvitation), nil
}

func (s *Service) responsePatch(last *domain.ConversationRecord, turn *domain.TranscriptTurn, started, now string) (domain.Patch, *ports.ConversationMetrics) {
	family := domain.NormalizeModel(turn.Model)

	requestEst, err := strconv.ParseInt(last.RequestTokensEst, 10, 64)
	if err != nil {
		requestEst = domain.EstimateTokens(last.Request)
	}
	responseEst := domain.EstimateTokens(turn.Text)
	cost := domain.TurnCost(turn.Usage, requestEst, responseEst, family)
	duration := util.ElapsedSeconds(started, now)

	patch := domain.Patch{
		domain.ColResponse:            turn.Text,
		domain.ColResponseDtm:         now,
		domain.ColDuration:            duration,
		domain.ColToolsUsed:           turn.ToolsUsed(),
		domain.ColToolsCount:          strconv.Itoa(len(turn.Tools)),
		domain.ColModel:               family,
		domain.ColRequestTokensEst:    strconv.FormatInt(requestEst, 10),
		domain.ColResponseTokensEst:   strconv.FormatInt(responseEst, 10),
		domain.ColTotalTokensEst:      strconv.FormatInt(requestEst+responseEst, 10),
		domain.ColActualInputTokens:   countOrEmpty(turn.Usage.InputTokens),
		domain.ColActualOutputTokens:  countOrEmpty(turn.Usage.OutputTokens),
		domain.ColCacheCreationTokens: countOrEmpty(turn.Usage.CacheCreationTokens),
		domain.ColCacheReadTokens:     countOrEmpty(turn.Usage.CacheReadTokens),
		domain.ColEstimatedCost:       cost,
		domain.ColCostCurrency:        domain.CostCurrency,
	}

	costUSD, _ := strconv.ParseFloat(cost, 64)
	seconds, _ := strconv.ParseInt(duration, 10, 64)
	m := &ports.ConversationMetrics{
		ProjectName:     s.project.Name,
		Model:           family,
		TokenInput:      turn.Usage.InputTokens,
		TokenOutput:     turn.Usage.OutputTokens,
		TokenCacheRead:  turn.Usage.CacheReadTokens,
		TokenCacheWrite: turn.Usage.CacheCreationTokens,
		CostEstimateUSD: costUSD,
		DurationSeconds: seconds,
		ToolsCount:      int64(len(turn.Tools)),
	}
	if !turn.Usage.HasActual() {
		m.TokenInput, m.TokenOutput = requestEst, responseEst
	}
	return patch, m
}

// archiveLast mirrors the last ledger row. Failures are logged only.
func (s *Service) archiveLast(ctx context.Context) {
	if s.archive == nil {
		return
	}
	last, err := s.ledger.ReadLast(ctx)
	if err != nil || last == nil {
		return
	}
	if err := s.archive.UpsertConversation(ctx, *last); err != nil {
		s.logger.Error(fmt.Sprintf("Failed to archive conversation %s: %v", last.ID, err))
	}
}

func countOrEmpty(n int64) string {
	if n <= 0 {
		return ""
	}
	return strconv.FormatInt(n, 10)
}
