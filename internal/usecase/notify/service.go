package notify

import (
	"context"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"newsletter-curator/internal/domain/entity"
	"newsletter-curator/internal/handler/http/requestid"
	"newsletter-curator/internal/infra/notifier"
)

const (
	circuitBreakerThreshold = 5
	circuitBreakerTimeout   = 5 * time.Minute
	workerPoolTimeout       = 5 * time.Second
	notificationTimeout     = 30 * time.Second

	previewRunes = 280
)

// Service fans newsletter announcements out to every enabled channel.
type Service interface {
	// NotifyNewsletter returns immediately; delivery happens in the background
	// and failures are only logged.
	NotifyNewsletter(ctx context.Context, user *entity.User, newsletter *entity.Newsletter)

	GetChannelHealth() []ChannelHealthStatus

	// Shutdown waits for in-flight notifications or ctx, whichever ends first.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus is the circuit breaker view of one channel.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
	DisabledUntil      *time.Time
}

type service struct {
	channels       []Channel
	workerPool     chan struct{}
	channelHealth  map[string]*channelHealth
	healthMu       sync.RWMutex
	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
}

type channelHealth struct {
	consecutiveFailures int
	disabledUntil       time.Time
	mu                  sync.Mutex
}

// NewService limits concurrent deliveries to maxConcurrent.
func NewService(channels []Channel, maxConcurrent int) Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())
	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		channelHealth:  make(map[string]*channelHealth),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
	}
	enabled := 0
	for _, ch := range channels {
		svc.channelHealth[ch.Name()] = &channelHealth{}
		if ch.IsEnabled() {
			enabled++
		}
	}
	channelsEnabled.Set(float64(enabled))
	return svc
}

// NewNotice builds the announcement for a persisted newsletter.
func NewNotice(user *entity.User, n *entity.Newsletter) notifier.Notice {
	preview := n.Content
	if utf8.RuneCountInString(preview) > previewRunes {
		preview = string([]rune(preview)[:previewRunes]) + "..."
	}
	return notifier.Notice{
		NewsletterID: n.ID,
		UserID:       n.UserID,
		Username:     user.Username,
		GeneratedAt:  n.GenerationDate,
		ArticleCount: len(n.ArticleIDs),
		Preview:      preview,
	}
}

func (s *service) NotifyNewsletter(ctx context.Context, user *entity.User, newsletter *entity.Newsletter) {
	if user == nil || newsletter == nil {
		slog.Warn("invalid notification input",
			slog.Bool("nil_user", user == nil),
			slog.Bool("nil_newsletter", newsletter == nil))
		return
	}

	requestID := requestid.FromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	notice := NewNotice(user, newsletter)
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		s.wg.Add(1)
		go s.notifyChannel(requestID, ch, notice)
	}
}

func (s *service) notifyChannel(requestID string, channel Channel, notice notifier.Notice) {
	defer s.wg.Done()

	activeNotifications.Inc()
	defer activeNotifications.Dec()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in notification channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		slog.Warn("notification dropped: worker pool full",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()))
		recordDropped(channel.Name(), "pool_full")
		return
	}

	health := s.getChannelHealth(channel.Name())
	health.mu.Lock()
	if time.Now().Before(health.disabledUntil) {
		disabledUntil := health.disabledUntil
		health.mu.Unlock()
		slog.Warn("channel temporarily disabled",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Time("disabled_until", disabledUntil))
		recordDropped(channel.Name(), "circuit_open")
		return
	}
	health.mu.Unlock()

	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = requestid.WithRequestID(ctx, requestID)

	start := time.Now()
	recordDispatch(channel.Name())
	err := channel.Send(ctx, notice)
	duration := time.Since(start)
	recordResult(channel.Name(), err, duration)

	health.mu.Lock()
	if err != nil {
		health.consecutiveFailures++
		if health.consecutiveFailures >= circuitBreakerThreshold {
			health.disabledUntil = time.Now().Add(circuitBreakerTimeout)
			recordCircuitBreakerOpen(channel.Name())
			slog.Error("circuit breaker opened for channel",
				slog.String("request_id", requestID),
				slog.String("channel", channel.Name()),
				slog.Int("consecutive_failures", health.consecutiveFailures))
		}
	} else {
		health.consecutiveFailures = 0
	}
	health.mu.Unlock()

	if err != nil {
		slog.Warn("newsletter notification failed",
			slog.String("request_id", requestID),
			slog.String("channel", channel.Name()),
			slog.Int64("newsletter_id", notice.NewsletterID),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}
	slog.Info("newsletter notification delivered",
		slog.String("request_id", requestID),
		slog.String("channel", channel.Name()),
		slog.Int64("newsletter_id", notice.NewsletterID),
		slog.Duration("send_duration", duration))
}

func (s *service) getChannelHealth(name string) *channelHealth {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()
	return s.channelHealth[name]
}

func (s *service) GetChannelHealth() []ChannelHealthStatus {
	s.healthMu.RLock()
	defer s.healthMu.RUnlock()

	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		health := s.channelHealth[ch.Name()]
		health.mu.Lock()
		var disabledUntil *time.Time
		open := time.Now().Before(health.disabledUntil)
		if open {
			until := health.disabledUntil
			disabledUntil = &until
		}
		health.mu.Unlock()

		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: open,
			DisabledUntil:      disabledUntil,
		})
	}
	return statuses
}

func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")
	s.shutdownCancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}
