package common

import (
	"context"
	"errors"
	"loketkita/src/lib"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailQueueHandler(t *testing.T) {
	var sent []*lib.SendMailInput
	handler := EmailQueueHandler(func(ctx context.Context, input *lib.SendMailInput) error {
		sent = append(sent, input)
		return nil
	})

	err := handler(context.Background(), `{
		"from": "noreply@loketkita.id",
		"from-name": "LoketKita",
		"to": ["buyer@example.com"],
		"bcc": ["audit@loketkita.id"],
		"subject": "Your payment has been confirmed",
		"body": "<p>ok</p>",
		"html": true
	}`)
	require.NoError(t, err)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"buyer@example.com"}, sent[0].To)
	assert.Equal(t, []string{"audit@loketkita.id"}, sent[0].Bcc)
	assert.Empty(t, sent[0].Cc)
	assert.Equal(t, "LoketKita", sent[0].FromName)
	assert.True(t, sent[0].Html)
}

func TestEmailQueueHandlerDropsMalformed(t *testing.T) {
	called := false
	handler := EmailQueueHandler(func(ctx context.Context, input *lib.SendMailInput) error {
		called = true
		return nil
	})

	assert.NoError(t, handler(context.Background(), `not json`))
	assert.NoError(t, handler(context.Background(), `{"subject": "no recipients", "from": "a@b.c"}`))
	assert.False(t, called)
}

func TestEmailQueueHandlerKeepsFailedDeliveries(t *testing.T) {
	handler := EmailQueueHandler(func(ctx context.Context, input *lib.SendMailInput) error {
		return errors.New("smtp down")
	})

	err := handler(context.Background(), `{"from": "noreply@loketkita.id", "to": ["buyer@example.com"]}`)
	assert.ErrorContains(t, err, "smtp down")
}
