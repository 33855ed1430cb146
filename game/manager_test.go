package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voyager.com/solitaire/klondike"
	"voyager.com/solitaire/settlement"
)

type fakeVerifier struct {
	verified bool
	err      error
}

func (f *fakeVerifier) VerifyStake(ctx context.Context, player string, amount uint64, proof string) (bool, error) {
	return f.verified, f.err
}

func testPolicy() settlement.PayoutPolicy {
	policy := settlement.DefaultPayoutPolicy()
	// No inactivity timers in tests.
	policy.AbandonAfterSec = 0
	return policy
}

func newTestManager(t *testing.T, verifier settlement.StakeVerifier, policy settlement.PayoutPolicy) (*Manager, *settlement.MemoryRewardStore) {
	t.Helper()
	store := settlement.NewMemoryRewardStore()
	coordinator := settlement.NewCoordinator(verifier, store, policy)
	manager, err := NewManager(NewMemorySessionTracker(), coordinator, nil)
	require.NoError(t, err)
	return manager, store
}

func TestCreateSession(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())

	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	assert.Equal(t, SessionStatus_ACTIVE, session.Status)
	assert.Equal(t, "player-1", session.Player)
	assert.Equal(t, uint64(100), session.StakeAmount)
	assert.Equal(t, "tx-abc", session.StakeProof)
	assert.False(t, session.RewardIssued)
	assert.Equal(t, klondike.DeckSize, session.Board.CardCount())
	assert.Equal(t, 24, session.Board.Stock.Len())
	assert.Equal(t, 7, session.Board.Tableaus[6].Len())

	loaded, err := manager.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, loaded.ID)

	byCode, err := manager.GetSessionByCode(session.Code)
	require.NoError(t, err)
	assert.Equal(t, session.ID, byCode.ID)
}

func TestCreateSessionStakeUnverified(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: false}, testPolicy())

	_, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-bogus")
	require.Error(t, err)
	_, ok := err.(StakeUnverifiedError)
	assert.True(t, ok, "expected StakeUnverifiedError, got %T", err)
}

func TestCreateSessionZeroStake(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())

	_, err := manager.CreateSession(context.Background(), "player-1", 0, "tx-abc")
	require.Error(t, err)
	_, ok := err.(InvalidStakeError)
	assert.True(t, ok, "expected InvalidStakeError, got %T", err)
}

func TestGetUnknownSession(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())

	_, err := manager.GetSession("no-such-session")
	require.Error(t, err)
	_, ok := err.(SessionNotFoundError)
	assert.True(t, ok, "expected SessionNotFoundError, got %T", err)
}

func TestApplyMoveRejectionLeavesSessionUntouched(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	_, err = manager.ApplyMove(context.Background(), session.ID, "tableau-42", 0, "tableau-0")
	require.Error(t, err)
	_, ok := err.(klondike.RuleError)
	assert.True(t, ok, "expected RuleError, got %T", err)

	after, err := manager.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, uint32(0), after.MoveCount)
	assert.Equal(t, SessionStatus_ACTIVE, after.Status)
}

func TestDraw(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	after, err := manager.Draw(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, 21, after.Board.Stock.Len())
	assert.Equal(t, 3, after.Board.Waste.Len())
	assert.Equal(t, klondike.DeckSize, after.Board.CardCount())
}

func TestUndoWithEmptyHistory(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	_, err = manager.Undo(context.Background(), session.ID)
	require.Error(t, err)
	assert.Equal(t, klondike.ErrNothingToUndo, err)
}

// rigWinningBoard replaces a live session's board with one where a single
// move (king of hearts to its foundation) wins the game.
func rigWinningBoard(t *testing.T, manager *Manager, sessionID string) {
	t.Helper()
	snap := klondike.Snapshot{}
	suits := []string{"h", "d", "c", "s"}
	ranks := []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
	for i, suit := range suits {
		top := len(ranks)
		if suit == "h" {
			top = len(ranks) - 1
		}
		cards := make([]*klondike.Card, 0, top)
		for _, rank := range ranks[:top] {
			card := klondike.NewCard(rank + suit)
			card.FaceUp = true
			cards = append(cards, card)
		}
		snap[klondike.FoundationPileID(i)] = cards
	}
	kh := klondike.NewCard("Kh")
	kh.FaceUp = true
	snap[klondike.TableauPileID(0)] = []*klondike.Card{kh}

	board, err := klondike.BoardFromSnapshot(snap)
	require.NoError(t, err)

	ms, err := manager.lookup(sessionID)
	require.NoError(t, err)
	ms.mu.Lock()
	ms.session.Board = board
	ms.mu.Unlock()
}

// rigWonBoard replaces a live session's board with a fully won one.
func rigWonBoard(t *testing.T, manager *Manager, sessionID string) {
	t.Helper()
	snap := klondike.Snapshot{}
	suits := []string{"h", "d", "c", "s"}
	ranks := []string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "T", "J", "Q", "K"}
	for i, suit := range suits {
		cards := make([]*klondike.Card, 0, len(ranks))
		for _, rank := range ranks {
			card := klondike.NewCard(rank + suit)
			card.FaceUp = true
			cards = append(cards, card)
		}
		snap[klondike.FoundationPileID(i)] = cards
	}
	board, err := klondike.BoardFromSnapshot(snap)
	require.NoError(t, err)

	ms, err := manager.lookup(sessionID)
	require.NoError(t, err)
	ms.mu.Lock()
	ms.session.Board = board
	ms.mu.Unlock()
}

func TestWinningMoveCompletesAndSettles(t *testing.T) {
	manager, store := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)
	rigWinningBoard(t, manager, session.ID)

	after, err := manager.ApplyMove(context.Background(), session.ID,
		klondike.TableauPileID(0), 0, klondike.FoundationPileID(0))
	require.NoError(t, err)

	assert.Equal(t, SessionStatus_COMPLETED, after.Status)
	assert.Equal(t, Result_WIN, after.Result)
	assert.True(t, after.RewardIssued)
	require.NotNil(t, after.CompletedAt)

	reward, err := store.Load(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, uint64(200), reward.Amount)
	assert.Equal(t, settlement.RewardStatus_PENDING, reward.Status)

	// The session is terminal; further mutation is rejected.
	_, err = manager.Draw(context.Background(), session.ID)
	require.Error(t, err)
	_, ok := err.(SessionNotActiveError)
	assert.True(t, ok, "expected SessionNotActiveError, got %T", err)
}

func TestCompleteClampsClaimedWin(t *testing.T) {
	manager, store := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	// The board is nowhere near won; a claimed win becomes a loss.
	after, err := manager.Complete(context.Background(), session.ID, Result_WIN)
	require.NoError(t, err)
	assert.Equal(t, SessionStatus_COMPLETED, after.Status)
	assert.Equal(t, Result_LOSE, after.Result)
	assert.False(t, after.RewardIssued)

	reward, err := store.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Nil(t, reward)
}

func TestCompleteTwice(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	_, err = manager.Complete(context.Background(), session.ID, Result_LOSE)
	require.NoError(t, err)

	_, err = manager.Complete(context.Background(), session.ID, Result_LOSE)
	require.Error(t, err)
	_, ok := err.(SessionNotActiveError)
	assert.True(t, ok, "expected SessionNotActiveError, got %T", err)
}

func TestConcurrentCompleteSettlesOnce(t *testing.T) {
	manager, store := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)
	rigWonBoard(t, manager, session.ID)

	const callers = 20
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = manager.Complete(context.Background(), session.ID, Result_WIN)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			_, ok := err.(SessionNotActiveError)
			assert.True(t, ok, "expected SessionNotActiveError, got %T", err)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one completion should win")

	reward, err := store.Load(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, uint64(200), reward.Amount)
}

func TestCompletionRefundPolicy(t *testing.T) {
	policy := testPolicy()
	policy.CompletionRefundFactor = 0.5
	manager, store := newTestManager(t, &fakeVerifier{verified: true}, policy)
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	after, err := manager.Complete(context.Background(), session.ID, Result_INCOMPLETE)
	require.NoError(t, err)
	assert.Equal(t, Result_INCOMPLETE, after.Result)
	assert.True(t, after.RewardIssued)

	reward, err := store.Load(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, reward)
	assert.Equal(t, uint64(50), reward.Amount)
}

func TestAbandonForfeitsStake(t *testing.T) {
	manager, store := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	after, err := manager.Abandon(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionStatus_ABANDONED, after.Status)
	assert.False(t, after.RewardIssued)

	reward, err := store.Load(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Nil(t, reward)

	_, err = manager.ApplyMove(context.Background(), session.ID, "tableau-0", 0, "tableau-1")
	require.Error(t, err)
	_, ok := err.(SessionNotActiveError)
	assert.True(t, ok, "expected SessionNotActiveError, got %T", err)
}

func TestConcurrentAdoptionStartsOneTimer(t *testing.T) {
	persist := NewMemorySessionTracker()
	store := settlement.NewMemoryRewardStore()
	policy := settlement.DefaultPayoutPolicy() // timers enabled, 24h window
	coordinator := settlement.NewCoordinator(&fakeVerifier{verified: true}, store, policy)
	manager, err := NewManager(persist, coordinator, nil)
	require.NoError(t, err)

	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	// A second manager over the same persistence adopts the session
	// under concurrent reads. Exactly one entry must win the map, and
	// only that entry may run an inactivity timer.
	manager2, err := NewManager(persist, coordinator, nil)
	require.NoError(t, err)

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, errs[n] = manager2.GetSession(session.ID)
		}(i)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	require.Equal(t, 1, manager2.activeSessions.Count())
	v, ok := manager2.activeSessions.Get(session.ID)
	require.True(t, ok)
	winner := v.(*managedSession)
	winner.mu.Lock()
	assert.NotNil(t, winner.timer, "the adoption winner should run the inactivity timer")
	winner.stopTimer()
	winner.mu.Unlock()

	if v, ok := manager.activeSessions.Get(session.ID); ok {
		ms := v.(*managedSession)
		ms.mu.Lock()
		ms.stopTimer()
		ms.mu.Unlock()
	}
}

func TestTerminalSessionLeavesActiveMap(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)
	require.Equal(t, 1, manager.activeSessions.Count())

	_, err = manager.Complete(context.Background(), session.ID, Result_LOSE)
	require.NoError(t, err)
	assert.Equal(t, 0, manager.activeSessions.Count())

	// Terminal sessions stay readable through persistence and are not
	// re-adopted into the map.
	loaded, err := manager.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionStatus_COMPLETED, loaded.Status)
	assert.Equal(t, 0, manager.activeSessions.Count())
}

func TestGetSessionReturnsDeepCopy(t *testing.T) {
	manager, _ := newTestManager(t, &fakeVerifier{verified: true}, testPolicy())
	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)

	snapshot, err := manager.GetSession(session.ID)
	require.NoError(t, err)
	snapshot.Status = SessionStatus_ABANDONED
	snapshot.Board.Stock.Cards = nil

	// Mutating the returned copy must not touch the live session.
	again, err := manager.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionStatus_ACTIVE, again.Status)
	assert.Equal(t, 24, again.Board.Stock.Len())
}

func TestSessionSurvivesManagerRestart(t *testing.T) {
	persist := NewMemorySessionTracker()
	store := settlement.NewMemoryRewardStore()
	coordinator := settlement.NewCoordinator(&fakeVerifier{verified: true}, store, testPolicy())
	manager, err := NewManager(persist, coordinator, nil)
	require.NoError(t, err)

	session, err := manager.CreateSession(context.Background(), "player-1", 100, "tx-abc")
	require.NoError(t, err)
	_, err = manager.Draw(context.Background(), session.ID)
	require.NoError(t, err)

	// A new manager over the same persistence adopts the session.
	manager2, err := NewManager(persist, coordinator, nil)
	require.NoError(t, err)
	adopted, err := manager2.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionStatus_ACTIVE, adopted.Status)
	assert.Equal(t, 3, adopted.Board.Waste.Len())
	assert.Equal(t, klondike.DeckSize, adopted.Board.CardCount())
}
