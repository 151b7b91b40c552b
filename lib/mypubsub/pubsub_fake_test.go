package mypubsub

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MarcGrol/ordermailer/lib/mylog"
)

type recordingLogger struct {
	lines []string
}

func (l *recordingLogger) Log(c context.Context, traceLabel string, severity mylog.Severity, format string, a ...any) {
	l.lines = append(l.lines, fmt.Sprintf("%s %s", severity, fmt.Sprintf(format, a...)))
}

func TestFakePublishLogs(t *testing.T) {
	// setup
	logger := &recordingLogger{}
	pubsub := &fakePubSub{logger: logger}
	c := context.TODO()

	// when
	err := pubsub.CreateTopic(c, "orders")
	require.NoError(t, err)
	err = pubsub.Publish(c, "orders", `{"orderUid":"order-1"}`)

	// then
	require.NoError(t, err)
	assert.Equal(t, []string{`DEBUG fake publish on topic orders: {"orderUid":"order-1"}`}, logger.lines)
}

func TestNewFakePubSub(t *testing.T) {
	pubsub, cleanup, err := newFakePubSub(context.TODO())
	require.NoError(t, err)
	defer cleanup()

	assert.NoError(t, pubsub.Publish(context.TODO(), "orders", "{}"))
}
