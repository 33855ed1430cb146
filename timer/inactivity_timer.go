package timer

import (
	"runtime/debug"
	"time"

	"github.com/rs/zerolog/log"
)

var inactivityTimerLogger = log.With().Str("logger_name", "timer::inactivity_timer").Logger()

// InactivityTimer fires its callback when a session has seen no mutation
// for the configured window. Every accepted operation resets it.
type InactivityTimer struct {
	sessionCode string
	window      time.Duration

	chReset   chan bool
	chEndLoop chan bool

	callback    func()
	lastResetAt time.Time
}

func NewInactivityTimer(sessionCode string, window time.Duration, callback func()) *InactivityTimer {
	t := InactivityTimer{
		sessionCode: sessionCode,
		window:      window,
		chReset:     make(chan bool, 1),
		chEndLoop:   make(chan bool, 10),
		callback:    callback,
	}
	return &t
}

func (t *InactivityTimer) Run() {
	go t.loop()
}

func (t *InactivityTimer) Destroy() {
	t.chEndLoop <- true
}

// Reset restarts the inactivity window. The send must not block: the
// loop may be inside the expiry callback, which itself waits on the
// session lock the caller is holding.
func (t *InactivityTimer) Reset() {
	select {
	case t.chReset <- true:
	default:
	}
}

func (t *InactivityTimer) GetElapsedTime() time.Duration {
	return time.Now().Sub(t.lastResetAt)
}

func (t *InactivityTimer) loop() {
	defer func() {
		err := recover()
		if err != nil {
			// Panic occurred.
			debug.PrintStack()
			inactivityTimerLogger.Error().
				Str("session", t.sessionCode).
				Msgf("Inactivity timer loop returning due to panic: %s\nStack Trace:\n%s", err, string(debug.Stack()))
		} else {
			inactivityTimerLogger.Debug().Str("session", t.sessionCode).Msg("Inactivity timer loop returning")
		}
	}()

	t.lastResetAt = time.Now()
	expireAt := t.lastResetAt.Add(t.window)
	expired := false
	for {
		select {
		case <-t.chEndLoop:
			return
		case <-t.chReset:
			t.lastResetAt = time.Now()
			expireAt = t.lastResetAt.Add(t.window)
			expired = false
		default:
			if !expired && !time.Now().Before(expireAt) {
				expired = true
				t.callback()
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}
