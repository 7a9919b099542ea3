package eventbus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/your-org/streamforge/pkg/eventbus"
)

func TestVideoIDFromSubject(t *testing.T) {
	cases := []struct {
		name    string
		subject string
		want    string
	}{
		{"valid", "logs.abc-123", "abc-123"},
		{"wrong prefix", "metrics.abc-123", ""},
		{"bare prefix", "logs", ""},
		{"empty id", "logs.", ""},
		{"nested token", "logs.abc.def", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, eventbus.VideoIDFromSubject("logs", tc.subject))
		})
	}
}
