// Package player relays playback state between an embedded player surface
// and the citation timeline. The wire format follows the YouTube iframe API:
// JSON envelopes carrying "onStateChange" and "infoDelivery" events inbound
// and "command" events outbound. The bridge is transport-agnostic so a page
// session can be exercised without a real embedded player.
package player

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/referer/referer/internal/timeline"
)

// ErrNoPlayer is returned by Seek before a player surface has been located.
var ErrNoPlayer = errors.New("no player surface attached")

const defaultPollInterval = 500 * time.Millisecond

// Envelope is one raw message received from a player surface.
type Envelope struct {
	Origin string
	Data   []byte
}

// Transport delivers messages from a player surface and posts commands back.
// Delivery is fire-and-forget: posted commands carry no acknowledgement and
// may be lost.
type Transport interface {
	Messages() <-chan Envelope
	Post(ctx context.Context, payload []byte) error
}

// Locator finds a player surface that may not have mounted yet.
type Locator interface {
	Locate() (Transport, bool)
}

// Config wires a bridge to one page session.
type Config struct {
	// AllowedOrigins lists the origins whose messages are accepted. Messages
	// from any other origin are dropped silently.
	AllowedOrigins []string
	Locator        Locator
	// PollInterval is the fixed delay between attempts to locate a
	// late-mounting player. Defaults to 500ms.
	PollInterval time.Duration
	// Offsets are the citation offsets for this session, sorted ascending.
	Offsets []int
	// OnActiveChange fires once per active-citation transition.
	OnActiveChange func(index int)
}

type playerEvent struct {
	Event string          `json:"event"`
	Info  json.RawMessage `json:"info"`
}

type seekCommand struct {
	Event string `json:"event"`
	Func  string `json:"func"`
	Args  []any  `json:"args"`
}

// Bridge owns the playback state of one page session: it feeds floored time
// updates into the tracker and relays seek commands to the player. Construct
// on navigation into a video, Detach on navigation away.
type Bridge struct {
	sessionID string
	allowed   map[string]struct{}
	locator   Locator
	poll      time.Duration
	tracker   *timeline.Tracker

	mu        sync.Mutex
	transport Transport
	playing   bool

	cancel context.CancelFunc
	done   chan struct{}
}

// NewBridge builds a detached bridge for one video page session.
func NewBridge(cfg Config) *Bridge {
	allowed := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	poll := cfg.PollInterval
	if poll <= 0 {
		poll = defaultPollInterval
	}
	return &Bridge{
		sessionID: uuid.NewString(),
		allowed:   allowed,
		locator:   cfg.Locator,
		poll:      poll,
		tracker:   timeline.NewTracker(cfg.Offsets, cfg.OnActiveChange),
		done:      make(chan struct{}),
	}
}

// SessionID identifies this page session in logs.
func (b *Bridge) SessionID() string {
	return b.sessionID
}

// Attach starts the event loop: it polls for a player surface at a fixed
// delay, then consumes its messages until the context is cancelled or
// Detach is called.
func (b *Bridge) Attach(ctx context.Context) {
	ctx, b.cancel = context.WithCancel(ctx)
	go b.run(ctx)
}

// Detach stops the event loop and waits for it to finish. After Detach the
// bridge delivers no further tracker updates. Safe to call more than once.
func (b *Bridge) Detach() {
	if b.cancel == nil {
		return // never attached
	}
	b.cancel()
	<-b.done
}

// Seek posts a seek command for the given offset. Seeking implicitly resumes
// playback. The command is at-most-once: the player surface is uncontrolled
// and may never apply it.
func (b *Bridge) Seek(ctx context.Context, seconds int) error {
	b.mu.Lock()
	tr := b.transport
	b.mu.Unlock()
	if tr == nil {
		return ErrNoPlayer
	}

	payload, err := json.Marshal(seekCommand{
		Event: "command",
		Func:  "seekTo",
		Args:  []any{seconds, true},
	})
	if err != nil {
		return fmt.Errorf("marshal seek command: %w", err)
	}
	return tr.Post(ctx, payload)
}

// Playing reports the last observed play/pause state.
func (b *Bridge) Playing() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.playing
}

// ActiveIndex returns the current active citation index, or timeline.None.
func (b *Bridge) ActiveIndex() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracker.Active()
}

func (b *Bridge) run(ctx context.Context) {
	defer close(b.done)

	tr := b.awaitPlayer(ctx)
	if tr == nil {
		return // torn down before a player mounted
	}

	b.mu.Lock()
	b.transport = tr
	b.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			return
		case env, ok := <-tr.Messages():
			if !ok {
				return
			}
			b.handle(env)
		}
	}
}

// awaitPlayer retries at a fixed delay until a player mounts or the session
// is torn down. No backoff: the surface usually appears within a tick or two.
func (b *Bridge) awaitPlayer(ctx context.Context) Transport {
	ticker := time.NewTicker(b.poll)
	defer ticker.Stop()
	for {
		if tr, ok := b.locator.Locate(); ok {
			return tr
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (b *Bridge) handle(env Envelope) {
	if _, ok := b.allowed[env.Origin]; !ok {
		return // unknown origin, drop silently
	}

	var ev playerEvent
	if err := json.Unmarshal(env.Data, &ev); err != nil {
		return // not JSON, drop silently
	}

	switch ev.Event {
	case "onStateChange":
		var state int
		if err := json.Unmarshal(ev.Info, &state); err != nil {
			return
		}
		b.mu.Lock()
		b.playing = state == 1
		b.mu.Unlock()
	case "infoDelivery":
		var info struct {
			CurrentTime *float64 `json:"currentTime"`
		}
		if err := json.Unmarshal(ev.Info, &info); err != nil || info.CurrentTime == nil {
			return
		}
		// Player time arrives with sub-second jitter; the timeline works in
		// whole seconds.
		b.mu.Lock()
		b.tracker.Advance(int(*info.CurrentTime))
		b.mu.Unlock()
	}
}
