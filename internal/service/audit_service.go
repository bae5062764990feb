package service

import (
	"context"

	"sabacc_bot/internal/domain"
	"sabacc_bot/internal/game"
	"sabacc_bot/internal/logger"
)

// EventRecorder - хранилище журнала действий
type EventRecorder interface {
	Create(ctx context.Context, e *domain.Event) error
}

// пишет журнал действий за столами. Ошибки записи только логируются:
// журнал не должен ломать партию
type AuditService struct {
	repo EventRecorder
}

func NewAuditService(repo EventRecorder) *AuditService {
	return &AuditService{repo: repo}
}

// создает новую запись в журнале
func (s *AuditService) Log(ctx context.Context, e *domain.Event) {
	if s == nil || s.repo == nil {
		return
	}
	if err := s.repo.Create(ctx, e); err != nil {
		logger.FromContext(ctx).Error("не удалось записать событие", "error", err, "action", e.Action)
	}
}

// логирует действие игрока с привязкой к раздаче и раунду
func (s *AuditService) LogAction(ctx context.Context, key string, sess *game.Session, playerID, action string, details map[string]any) {
	s.Log(ctx, &domain.Event{
		SessionKey: key,
		GameID:     sess.ID,
		PlayerID:   playerID,
		Action:     action,
		HandIndex:  sess.HandIndex,
		RoundIndex: sess.RoundIndex,
		Details:    details,
	})
}

// логирует итог раздачи
func (s *AuditService) LogHand(ctx context.Context, key string, sess *game.Session, hand *game.HandSummary) {
	results := make([]map[string]any, 0, len(hand.Results))
	for _, r := range hand.Results {
		results = append(results, map[string]any{
			"player_id":   r.PlayerID,
			"blood":       r.Blood.String(),
			"sand":        r.Sand.String(),
			"rank":        r.Rank,
			"token_loss":  r.TokenLoss,
			"tokens_left": r.TokensAfter,
			"eliminated":  r.Eliminated,
		})
	}
	s.Log(ctx, &domain.Event{
		SessionKey: key,
		GameID:     sess.ID,
		Action:     domain.EventHandResolved,
		HandIndex:  hand.HandIndex,
		RoundIndex: game.RevealRound,
		Details:    map[string]any{"results": results},
	})
}

// логирует завершение партии
func (s *AuditService) LogGameCompleted(ctx context.Context, key string, sess *game.Session) {
	details := map[string]any{"hands": len(sess.HandHistory)}
	var winnerID string
	if w := sess.Winner(); w != nil {
		winnerID = w.ID
		details["tokens"] = w.Tokens
	}
	s.Log(ctx, &domain.Event{
		SessionKey: key,
		GameID:     sess.ID,
		PlayerID:   winnerID,
		Action:     domain.EventGameCompleted,
		HandIndex:  sess.HandIndex,
		Details:    details,
	})
}
