package email

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageHeaders(t *testing.T) {
	raw := buildMessage("from@x.test", Message{To: "to@x.test", Subject: "Hi", Body: "hello"})
	assert.Contains(t, raw, "From: from@x.test\r\n")
	assert.Contains(t, raw, "To: to@x.test\r\n")
	assert.Contains(t, raw, "Subject: Hi\r\n")
	assert.Contains(t, raw, "\r\n\r\nhello\r\n")
}

func TestNewSMTPSenderDefaultsFrom(t *testing.T) {
	s := NewSMTPSender(" mailpit ", "1025", " ")
	assert.Equal(t, "mailpit:1025", s.addr)
	assert.Equal(t, "no-reply@slotbook.local", s.from)
}

func TestLogSenderWritesRecord(t *testing.T) {
	var buf bytes.Buffer
	s := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, s.Send(context.Background(), Message{To: "c1@x.test", Subject: "Confirmed"}))
	assert.Contains(t, buf.String(), `"to":"c1@x.test"`)
	assert.Contains(t, buf.String(), `"subject":"Confirmed"`)
}
