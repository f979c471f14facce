package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/zhouzirui/thalassa/internal/client/answer"
	"github.com/zhouzirui/thalassa/internal/model/chat"
)

const (
	// FallbackText is shown when the answer service could not be reached or
	// rejected the request.
	FallbackText = "Sorry, something went wrong."
	// UnexpectedResponseText is shown when a successful reply carried no answer.
	UnexpectedResponseText = "Sorry, I received an unexpected response."
)

// Asker is the transport a Session sends questions through.
type Asker interface {
	Ask(ctx context.Context, req answer.Request) (answer.Response, error)
}

// Config tunes a Session.
type Config struct {
	// Debounce collapses sends issued within the window into the last one.
	// Zero disables debouncing.
	Debounce time.Duration
	Logger   zerolog.Logger
}

// Session owns the conversation state of a single view: the ordered message
// log, the loading flag and the session id handed out by the answer service.
type Session struct {
	asker    Asker
	logger   zerolog.Logger
	debounce *debouncer

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	settled   *sync.Cond
	messages  []chat.Message
	loading   bool
	sessionID string
	inflight  int
	closed    bool
	subs      map[int]chan chat.Snapshot
	nextSub   int

	closeOnce sync.Once
}

// NewSession creates an empty session bound to asker.
func NewSession(asker Asker, cfg Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		asker:    asker,
		logger:   cfg.Logger,
		debounce: newDebouncer(cfg.Debounce),
		ctx:      ctx,
		cancel:   cancel,
		messages: make([]chat.Message, 0, 16),
		subs:     make(map[int]chan chat.Snapshot),
	}
	s.settled = sync.NewCond(&s.mu)
	return s
}

// Send appends text to the log as a user entry, raises the loading flag and
// schedules the request. Whitespace-only text is ignored. Requests are
// debounced: a burst of sends produces one request carrying the last text,
// while every text still shows up in the log. The call returns immediately;
// observers learn about progress through Subscribe.
func (s *Session) Send(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.messages = append(s.messages, chat.UserMessage(text))
	s.loading = true
	s.publishLocked()
	s.mu.Unlock()

	s.debounce.Trigger(func() { s.dispatch(text) })
}

func (s *Session) dispatch(text string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight++
	req := answer.Request{Query: text, SessionID: s.sessionID}
	s.mu.Unlock()

	s.logger.Debug().
		Int("query_len", len(text)).
		Bool("has_session", req.SessionID != "").
		Msg("sending message")

	go s.await(req)
}

// await settles one request. Superseded requests are not cancelled, so a late
// reply still lands in the log.
func (s *Session) await(req answer.Request) {
	resp, err := s.asker.Ask(s.ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case err == nil && resp.Answer != "":
		if s.sessionID == "" && resp.SessionID != "" {
			s.sessionID = resp.SessionID
			s.logger.Debug().Str("session_id", resp.SessionID).Msg("session id assigned")
		}
		s.messages = append(s.messages, chat.BotMessage(resp.Answer))
	case err == nil, errors.Is(err, answer.ErrMalformedResponse):
		s.logger.Warn().Err(err).Msg("answer service returned no answer")
		s.messages = append(s.messages, chat.BotMessage(UnexpectedResponseText))
	default:
		s.logger.Warn().Err(err).Msg("answer request failed")
		s.messages = append(s.messages, chat.BotMessage(FallbackMessage(answer.DetailOf(err))))
	}

	s.loading = false
	s.inflight--
	s.publishLocked()
	s.settled.Broadcast()
}

// FallbackMessage renders the failure text, including the server detail when
// one was provided.
func FallbackMessage(detail string) string {
	detail = strings.TrimSpace(detail)
	if detail == "" {
		return FallbackText
	}
	return strings.TrimSuffix(FallbackText, ".") + ": " + detail
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() chat.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() chat.Snapshot {
	messages := make([]chat.Message, len(s.messages))
	copy(messages, s.messages)
	return chat.Snapshot{
		Messages:  messages,
		IsLoading: s.loading,
		SessionID: s.sessionID,
	}
}

// Subscribe returns a channel that always holds the latest snapshot. The
// current state is delivered right away. Slow readers skip intermediate
// states instead of blocking the session. The returned func unsubscribes.
func (s *Session) Subscribe() (<-chan chat.Snapshot, func()) {
	ch := make(chan chat.Snapshot, 1)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	ch <- s.snapshotLocked()

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
}

func (s *Session) publishLocked() {
	if s.closed || len(s.subs) == 0 {
		return
	}

	snap := s.snapshotLocked()
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

// Wait blocks until any debounced send has fired and every in-flight request
// has settled.
func (s *Session) Wait() {
	s.debounce.Wait()

	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inflight > 0 {
		s.settled.Wait()
	}
}

// Close drops a pending debounced send, cancels in-flight requests and closes
// every subscription. In-flight requests still settle, as failures.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.debounce.Stop()
		s.cancel()

		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if s.inflight == 0 {
			// a dropped debounced request never settles
			s.loading = false
		}
		for id, ch := range s.subs {
			close(ch)
			delete(s.subs, id)
		}
	})
}
