package game

import (
	"context"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"voyager.com/solitaire/internal"
	"voyager.com/solitaire/klondike"
	"voyager.com/solitaire/settlement"
	"voyager.com/solitaire/timer"
	"voyager.com/solitaire/util"
)

var managerLogger = log.With().Str("logger_name", "game::manager").Logger()

// EventPublisher receives session lifecycle events. The NATS publisher
// implements it; a nil publisher disables events.
type EventPublisher interface {
	SessionStarted(session *Session)
	MoveApplied(session *Session, move *klondike.Move)
	SessionCompleted(session *Session, reward *settlement.RewardRecord)
	StakeWithdrawn(session *Session, reward *settlement.RewardRecord)
}

type managedSession struct {
	mu      sync.Mutex
	session *Session
	timer   *timer.InactivityTimer
}

// Manager owns the live sessions. Sessions are independent of each other
// and run concurrently; within one session every mutating operation is
// serialized by the per-session lock.
type Manager struct {
	activeSessions cmap.ConcurrentMap
	persist        PersistSessionState
	settlement     *settlement.Coordinator
	publisher      EventPublisher
	codeCache      *internal.SessionCodeCache
}

func NewManager(persist PersistSessionState, coordinator *settlement.Coordinator, publisher EventPublisher) (*Manager, error) {
	codeCache, err := internal.NewSessionCodeCache()
	if err != nil {
		return nil, errors.Wrap(err, "Unable to initialize session code cache")
	}
	return &Manager{
		activeSessions: cmap.New(),
		persist:        persist,
		settlement:     coordinator,
		publisher:      publisher,
		codeCache:      codeCache,
	}, nil
}

// CreateSession verifies the stake proof with the settlement coordinator
// and, only on success, deals a fresh board and activates the session.
// A verification failure aborts creation entirely; no partial session is
// ever visible to callers.
func (m *Manager) CreateSession(ctx context.Context, player string, stakeAmount uint64, stakeProof string) (*Session, error) {
	if stakeAmount == 0 {
		return nil, InvalidStakeError{Amount: stakeAmount}
	}

	verified, err := m.settlement.VerifyStake(ctx, player, stakeAmount, stakeProof)
	if err != nil {
		return nil, StakeUnverifiedError{Player: player, Reason: err.Error()}
	}
	if !verified {
		return nil, StakeUnverifiedError{Player: player, Reason: "stake proof not confirmed by ledger"}
	}

	session := newSession(player, stakeAmount, stakeProof)
	if err := m.persist.Save(session.ID, session); err != nil {
		return nil, errors.Wrap(err, "Unable to persist new session")
	}

	ms := &managedSession{session: session}
	m.startInactivityTimer(ms)
	m.activeSessions.Set(session.ID, ms)
	m.codeCache.Add(session.Code, session.ID)
	util.Metrics.SessionCreated()
	util.Metrics.SetActiveSessionsMapCount(m.activeSessions.Count())

	managerLogger.Info().
		Str("sessionID", session.ID).
		Str("sessionCode", session.Code).
		Str("player", player).
		Uint64("stake", stakeAmount).
		Msg("Session created")

	if m.publisher != nil {
		m.publisher.SessionStarted(session)
	}
	return cloneSession(session)
}

// ApplyMove validates and applies one move. When the move wins the game,
// the session completes and settles in the same call.
func (m *Manager) ApplyMove(ctx context.Context, sessionID string, fromPileID string, fromIndex int, toPileID string) (*Session, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	move, err := ms.session.applyMove(fromPileID, fromIndex, toPileID)
	if err != nil {
		util.Metrics.MoveRejected()
		return nil, err
	}
	util.Metrics.MoveApplied()

	var reward *settlement.RewardRecord
	if ms.session.Status == SessionStatus_COMPLETED {
		reward = m.settleLocked(ctx, ms, settlement.PayoutPath_WIN)
	} else {
		ms.resetTimer()
	}
	if err := m.persist.Save(ms.session.ID, ms.session); err != nil {
		return nil, errors.Wrap(err, "Unable to persist session")
	}
	m.retireIfTerminal(ms)

	if m.publisher != nil {
		m.publisher.MoveApplied(ms.session, move)
		if ms.session.Status == SessionStatus_COMPLETED {
			m.publisher.SessionCompleted(ms.session, reward)
		}
	}
	return cloneSession(ms.session)
}

// Draw performs the stock/waste cycle.
func (m *Manager) Draw(ctx context.Context, sessionID string) (*Session, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, _, err := ms.session.draw(); err != nil {
		return nil, err
	}
	ms.resetTimer()
	if err := m.persist.Save(ms.session.ID, ms.session); err != nil {
		return nil, errors.Wrap(err, "Unable to persist session")
	}
	return cloneSession(ms.session)
}

// Undo rewinds the last accepted move.
func (m *Manager) Undo(ctx context.Context, sessionID string) (*Session, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if _, err := ms.session.undoLastMove(); err != nil {
		return nil, err
	}
	ms.resetTimer()
	if err := m.persist.Save(ms.session.ID, ms.session); err != nil {
		return nil, errors.Wrap(err, "Unable to persist session")
	}
	return cloneSession(ms.session)
}

// Complete finalizes an active session and settles it. The first call
// wins; concurrent or repeated calls fail with SESSION_NOT_ACTIVE and at
// most one reward record is ever created for the session.
func (m *Manager) Complete(ctx context.Context, sessionID string, requested Result) (*Session, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.session.complete(requested); err != nil {
		return nil, err
	}

	path := settlement.PayoutPath_NONE
	switch ms.session.Result {
	case Result_WIN:
		path = settlement.PayoutPath_WIN
	case Result_INCOMPLETE:
		// Completed without winning. Pays only when the policy enables
		// the completion refund.
		path = settlement.PayoutPath_COMPLETION
	}
	reward := m.settleLocked(ctx, ms, path)
	if err := m.persist.Save(ms.session.ID, ms.session); err != nil {
		return nil, errors.Wrap(err, "Unable to persist session")
	}
	m.retireIfTerminal(ms)

	if m.publisher != nil {
		m.publisher.SessionCompleted(ms.session, reward)
	}
	return cloneSession(ms.session)
}

// Abandon terminates an active session. An explicit abandon forfeits the
// stake; only the inactivity timeout path refunds per policy.
func (m *Manager) Abandon(ctx context.Context, sessionID string) (*Session, error) {
	return m.abandonSession(ctx, sessionID, settlement.PayoutPath_NONE)
}

func (m *Manager) abandonSession(ctx context.Context, sessionID string, path settlement.PayoutPath) (*Session, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()

	if err := ms.session.abandon(); err != nil {
		return nil, err
	}
	reward := m.settleLocked(ctx, ms, path)
	if err := m.persist.Save(ms.session.ID, ms.session); err != nil {
		return nil, errors.Wrap(err, "Unable to persist session")
	}
	m.retireIfTerminal(ms)

	if m.publisher != nil && path == settlement.PayoutPath_TIMEOUT_ABANDON {
		m.publisher.StakeWithdrawn(ms.session, reward)
	}
	return cloneSession(ms.session)
}

// GetSession returns a point-in-time copy of the session.
func (m *Manager) GetSession(sessionID string) (*Session, error) {
	ms, err := m.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return cloneSession(ms.session)
}

// GetSessionByCode resolves a session by its human-friendly code.
func (m *Manager) GetSessionByCode(code string) (*Session, error) {
	sessionID, ok := m.codeCache.CodeToID(code)
	if !ok {
		return nil, SessionNotFoundError{SessionID: code}
	}
	return m.GetSession(sessionID)
}

// Reward returns the reward record for a session, nil when none exists.
func (m *Manager) Reward(ctx context.Context, sessionID string) (*settlement.RewardRecord, error) {
	return m.settlement.Reward(ctx, sessionID)
}

// settleLocked issues the reward for a finished session. Caller must hold
// the session lock. The reward store enforces at-most-once creation, so a
// duplicate settlement attempt from a racing request path is a no-op here.
func (m *Manager) settleLocked(ctx context.Context, ms *managedSession, path settlement.PayoutPath) *settlement.RewardRecord {
	ms.stopTimer()
	s := ms.session
	reward, err := m.settlement.IssueReward(ctx, s.ID, s.Player, path, s.StakeAmount)
	if err == settlement.ErrRewardExists {
		return nil
	}
	if err != nil {
		managerLogger.Error().
			Str("sessionID", s.ID).
			Msgf("Unable to issue reward: %s", err)
		return nil
	}
	if reward != nil {
		s.RewardIssued = true
	}
	return reward
}

// lookup finds a live session, falling back to the persisted copy so
// that terminal sessions remain readable and an active session survives
// a process restart.
func (m *Manager) lookup(sessionID string) (*managedSession, error) {
	for {
		if v, ok := m.activeSessions.Get(sessionID); ok {
			return v.(*managedSession), nil
		}

		session, err := m.persist.Load(sessionID)
		if err != nil {
			return nil, err
		}
		// Terminal sessions are served straight from persistence and
		// never re-enter the active map.
		if session.Status.Terminal() {
			return &managedSession{session: session}, nil
		}

		ms := &managedSession{session: session}
		ms.mu.Lock()
		if m.activeSessions.SetIfAbsent(sessionID, ms) {
			// Only the adoption winner runs an inactivity timer; a
			// loser's managedSession is discarded before one starts.
			m.startInactivityTimer(ms)
			m.codeCache.Add(session.Code, session.ID)
			util.Metrics.SetActiveSessionsMapCount(m.activeSessions.Count())
			ms.mu.Unlock()
			return ms, nil
		}
		ms.mu.Unlock()
		// Lost the adoption race; take the winner's entry on the next
		// pass (or reload if it already retired).
	}
}

// retireIfTerminal drops a finished session from the active map once its
// terminal state has been persisted. Reads keep working through lookup's
// persistence fallback.
func (m *Manager) retireIfTerminal(ms *managedSession) {
	if !ms.session.Status.Terminal() {
		return
	}
	m.activeSessions.Remove(ms.session.ID)
	util.Metrics.SetActiveSessionsMapCount(m.activeSessions.Count())
}

func (m *Manager) startInactivityTimer(ms *managedSession) {
	window := time.Duration(m.settlement.Policy().AbandonAfterSec) * time.Second
	if window <= 0 {
		return
	}
	sessionID := ms.session.ID
	ms.timer = timer.NewInactivityTimer(ms.session.Code, window, func() {
		m.timeoutAbandon(sessionID)
	})
	ms.timer.Run()
}

func (ms *managedSession) resetTimer() {
	if ms.timer != nil {
		ms.timer.Reset()
	}
}

func (ms *managedSession) stopTimer() {
	if ms.timer != nil {
		ms.timer.Destroy()
		ms.timer = nil
	}
}

// timeoutAbandon is the inactivity timer callback: the session is
// abandoned and the stake refunded minus the penalty the policy defines.
func (m *Manager) timeoutAbandon(sessionID string) {
	managerLogger.Info().
		Str("sessionID", sessionID).
		Msg("Session inactive past the abandonment window")
	_, err := m.abandonSession(context.Background(), sessionID, settlement.PayoutPath_TIMEOUT_ABANDON)
	if err != nil {
		if _, ok := err.(SessionNotActiveError); !ok {
			managerLogger.Error().
				Str("sessionID", sessionID).
				Msgf("Unable to abandon inactive session: %s", err)
		}
	}
}

// cloneSession deep-copies a session so that callers never see the
// lock-protected live state. A failed clone is an error; handing out the
// original would leak it past the session mutex.
func cloneSession(session *Session) (*Session, error) {
	sessionBytes, err := jsoniter.Marshal(session)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to clone session")
	}
	clone := &Session{}
	if err := jsoniter.Unmarshal(sessionBytes, clone); err != nil {
		return nil, errors.Wrap(err, "Unable to clone session")
	}
	return clone, nil
}
