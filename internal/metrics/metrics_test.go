package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCounters(t *testing.T) {
	m := New("industry")
	m.AddCollected("search", 12)
	m.AddDropped(DropDuplicate, 4)
	m.AddDropped(DropStale, 0)
	m.IncRewrite(RewriteOK)
	m.IncRewrite(RewriteFallback)
	m.RecordDelivery(true, time.Unix(1700000000, 0))
	m.RecordRender(2, 900)

	assert.Equal(t, 12.0, value(t, m, "newsbot_items_collected_total", "search"))
	assert.Equal(t, 4.0, value(t, m, "newsbot_items_dropped_total", DropDuplicate))
	assert.Equal(t, 0.0, value(t, m, "newsbot_items_dropped_total", DropStale))
	assert.Equal(t, 1.0, value(t, m, "newsbot_messages_total", "sent"))
	assert.Equal(t, 1700000000.0, value(t, m, "newsbot_last_success_timestamp_seconds", ""))
	assert.Equal(t, 2.0, value(t, m, "newsbot_render_rung", ""))
}

// value finds a sample by family name and, for vectors, by the value of its
// non-constant label.
func value(t *testing.T, m *Metrics, name, label string) float64 {
	t.Helper()

	families, err := m.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, metric := range f.GetMetric() {
			if label != "" && !hasLabelValue(metric, label) {
				continue
			}
			if c := metric.GetCounter(); c != nil {
				return c.GetValue()
			}
			return metric.GetGauge().GetValue()
		}
	}
	return 0
}

func hasLabelValue(metric *dto.Metric, v string) bool {
	for _, l := range metric.GetLabel() {
		if l.GetName() != "variant" && l.GetValue() == v {
			return true
		}
	}
	return false
}

func TestPush(t *testing.T) {
	var body string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := New("work24")
	m.AddCollected("work24", 3)
	require.NoError(t, m.Push(context.Background(), srv.URL, "newsbot_work24"))
	assert.True(t, strings.HasSuffix(path, "/metrics/job/newsbot_work24"), path)
	assert.NotEmpty(t, body)
}

func TestPushDisabled(t *testing.T) {
	assert.NoError(t, New("x").Push(context.Background(), "", "job"))
}
