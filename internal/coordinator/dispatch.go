package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/your-org/streamforge/pkg/kafka"
)

// JobParameters is the data a transcode worker needs to pick up a
// queued video.
type JobParameters struct {
	FileName string `json:"fileName"`
	VideoID  string `json:"videoId"`
}

// JobDispatcher hands a queued video to the external compute-job
// launcher.
type JobDispatcher interface {
	Dispatch(ctx context.Context, params JobParameters) error
}

// jobMessage is the wire shape published to the jobs topic. Parameters
// are carried as an env-var map so the worker entrypoint can consume
// them directly.
type jobMessage struct {
	VideoID     string            `json:"video_id"`
	Environment map[string]string `json:"environment"`
	RequestedAt time.Time         `json:"requested_at"`
}

// KafkaDispatcher publishes transcode job requests onto a Kafka topic.
type KafkaDispatcher struct {
	producer *kafka.Producer
}

func NewKafkaDispatcher(producer *kafka.Producer) *KafkaDispatcher {
	return &KafkaDispatcher{producer: producer}
}

func (d *KafkaDispatcher) Dispatch(ctx context.Context, params JobParameters) error {
	msg := jobMessage{
		VideoID: params.VideoID,
		Environment: map[string]string{
			"FILENAME": params.FileName,
			"VIDEO_ID": params.VideoID,
		},
		RequestedAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal job message: %w", err)
	}

	headers := map[string]string{
		"video_id":   params.VideoID,
		"event_type": "transcode.requested",
	}

	return d.producer.Publish(ctx, []byte(params.VideoID), payload, headers)
}
