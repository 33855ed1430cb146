package nats

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"voyager.com/solitaire/game"
	"voyager.com/solitaire/klondike"
	"voyager.com/solitaire/settlement"
)

var natsLogger = log.With().Str("logger_name", "nats::events").Logger()

const (
	sessionStartedSubject   = "solitaire.session.started"
	moveAppliedSubject      = "solitaire.session.move"
	sessionCompletedSubject = "solitaire.session.completed"
	stakeWithdrawnSubject   = "solitaire.session.withdrawn"
)

// EventPublisher publishes session lifecycle events to NATS subjects.
// Consumers (lobby, history service, payout watcher) subscribe to the
// solitaire.session.* subjects.
type EventPublisher struct {
	nc *natsgo.Conn
}

func NewEventPublisher(url string) (*EventPublisher, error) {
	nc, err := natsgo.Connect(url)
	if err != nil {
		natsLogger.Error().Msgf("Failed to connect to nats server: %v", err)
		return nil, err
	}
	return &EventPublisher{nc: nc}, nil
}

type sessionStartedEvent struct {
	SessionID   string    `json:"sessionId"`
	SessionCode string    `json:"sessionCode"`
	Player      string    `json:"playerIdentity"`
	StakeAmount uint64    `json:"stakeAmount"`
	Timestamp   time.Time `json:"timestamp"`
}

type moveAppliedEvent struct {
	SessionID  string    `json:"sessionId"`
	Player     string    `json:"playerIdentity"`
	FromPileID string    `json:"fromPileId"`
	ToPileID   string    `json:"toPileId"`
	FromIndex  int       `json:"fromIndex"`
	MoveCount  uint32    `json:"moveCount"`
	Timestamp  time.Time `json:"timestamp"`
}

type sessionCompletedEvent struct {
	SessionID    string    `json:"sessionId"`
	Player       string    `json:"playerIdentity"`
	Result       string    `json:"result"`
	Score        int64     `json:"score"`
	MoveCount    uint32    `json:"moveCount"`
	RewardAmount uint64    `json:"rewardAmount"`
	Timestamp    time.Time `json:"timestamp"`
}

type stakeWithdrawnEvent struct {
	SessionID    string    `json:"sessionId"`
	Player       string    `json:"playerIdentity"`
	RefundAmount uint64    `json:"refundAmount"`
	Timestamp    time.Time `json:"timestamp"`
}

func (p *EventPublisher) publish(subject string, event interface{}) {
	data, err := jsoniter.Marshal(event)
	if err != nil {
		natsLogger.Error().Msgf("Unable to marshal event for subject %s: %v", subject, err)
		return
	}
	if err := p.nc.Publish(subject, data); err != nil {
		natsLogger.Error().Msgf("Unable to publish to subject %s: %v", subject, err)
	}
}

func (p *EventPublisher) SessionStarted(session *game.Session) {
	p.publish(sessionStartedSubject, sessionStartedEvent{
		SessionID:   session.ID,
		SessionCode: session.Code,
		Player:      session.Player,
		StakeAmount: session.StakeAmount,
		Timestamp:   session.StartedAt,
	})
}

func (p *EventPublisher) MoveApplied(session *game.Session, move *klondike.Move) {
	p.publish(moveAppliedSubject, moveAppliedEvent{
		SessionID:  session.ID,
		Player:     session.Player,
		FromPileID: move.FromPileID,
		ToPileID:   move.ToPileID,
		FromIndex:  move.FromIndex,
		MoveCount:  session.MoveCount,
		Timestamp:  session.UpdatedAt,
	})
}

func (p *EventPublisher) SessionCompleted(session *game.Session, reward *settlement.RewardRecord) {
	var amount uint64
	if reward != nil {
		amount = reward.Amount
	}
	p.publish(sessionCompletedSubject, sessionCompletedEvent{
		SessionID:    session.ID,
		Player:       session.Player,
		Result:       session.Result.String(),
		Score:        session.Score,
		MoveCount:    session.MoveCount,
		RewardAmount: amount,
		Timestamp:    session.UpdatedAt,
	})
}

func (p *EventPublisher) StakeWithdrawn(session *game.Session, reward *settlement.RewardRecord) {
	var amount uint64
	if reward != nil {
		amount = reward.Amount
	}
	p.publish(stakeWithdrawnSubject, stakeWithdrawnEvent{
		SessionID:    session.ID,
		Player:       session.Player,
		RefundAmount: amount,
		Timestamp:    session.UpdatedAt,
	})
}
