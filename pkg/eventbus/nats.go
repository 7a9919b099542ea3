package eventbus

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// Config describes the subjects the coordinator listens on. Transcode
// workers publish log lines on `<LogSubjectPrefix>.<videoID>` and job
// lifecycle updates on JobStatusSubject.
type Config struct {
	URL              string
	ClientName       string
	LogSubjectPrefix string
	JobStatusSubject string
}

// LogHandler receives one log line for one video.
type LogHandler func(videoID, line string)

// JobStatusHandler receives one raw lifecycle status for one video.
type JobStatusHandler func(videoID, status string)

// Bus is a NATS-backed subscriber for the two event families the hub
// consumes.
type Bus struct {
	conn   *nats.Conn
	cfg    Config
	logger *zap.Logger
	subs   []*nats.Subscription
}

// Connect dials NATS with unbounded reconnects.
func Connect(cfg Config, logger *zap.Logger) (*Bus, error) {
	opts := []nats.Option{
		nats.Name(cfg.ClientName),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logger.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connect to nats: %w", err)
	}

	return &Bus{conn: conn, cfg: cfg, logger: logger}, nil
}

type logPayload struct {
	Log string `json:"log"`
}

type jobStatusPayload struct {
	VideoID string `json:"videoId"`
	Status  string `json:"status"`
}

// SubscribeLogs subscribes to the per-video log subject family. The
// videoID is the subject token after the prefix.
func (b *Bus) SubscribeLogs(handler LogHandler) error {
	subject := b.cfg.LogSubjectPrefix + ".*"
	sub, err := b.conn.Subscribe(subject, func(msg *nats.Msg) {
		videoID := VideoIDFromSubject(b.cfg.LogSubjectPrefix, msg.Subject)
		if videoID == "" {
			b.logger.Warn("log event with malformed subject", zap.String("subject", msg.Subject))
			return
		}
		var payload logPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			b.logger.Warn("undecodable log event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		handler(videoID, payload.Log)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", subject, err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

// SubscribeJobStatus subscribes to the shared job lifecycle subject.
func (b *Bus) SubscribeJobStatus(handler JobStatusHandler) error {
	sub, err := b.conn.Subscribe(b.cfg.JobStatusSubject, func(msg *nats.Msg) {
		var payload jobStatusPayload
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			b.logger.Warn("undecodable job status event", zap.Error(err))
			return
		}
		if payload.VideoID == "" {
			b.logger.Warn("job status event without videoId")
			return
		}
		handler(payload.VideoID, payload.Status)
	})
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", b.cfg.JobStatusSubject, err)
	}
	b.subs = append(b.subs, sub)
	return nil
}

// VideoIDFromSubject extracts the videoID token from a log subject.
// Returns "" when the subject does not belong to the prefix family.
func VideoIDFromSubject(prefix, subject string) string {
	id, ok := strings.CutPrefix(subject, prefix+".")
	if !ok || id == "" || strings.Contains(id, ".") {
		return ""
	}
	return id
}

// Close drains the subscriptions and closes the connection.
func (b *Bus) Close() error {
	for _, sub := range b.subs {
		if err := sub.Drain(); err != nil {
			b.logger.Warn("drain subscription", zap.Error(err))
		}
	}
	if b.conn != nil {
		return b.conn.Drain()
	}
	return nil
}
