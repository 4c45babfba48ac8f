package service

import (
	"cbme_survey_backend/internal/config"
	"cbme_survey_backend/internal/util"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resend/resend-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	requests []*resend.SendEmailRequest
	deadline bool
	err      error
}

func (f *fakeSender) SendWithContext(ctx context.Context, params *resend.SendEmailRequest) (*resend.SendEmailResponse, error) {
	_, f.deadline = ctx.Deadline()
	f.requests = append(f.requests, params)
	if f.err != nil {
		return nil, f.err
	}
	return &resend.SendEmailResponse{Id: "email-1"}, nil
}

func TestEmailNotifier_Sends(t *testing.T) {
	sender := &fakeSender{}
	n := newEmailNotifier(sender, config.MailConfig{
		From: "CBME Survey <survey@example.com>",
		To:   []string{"office@example.com"},
	}, time.UTC)

	require.NoError(t, n.Notify(context.Background(), fixtureResponse(t)))

	require.Len(t, sender.requests, 1)
	req := sender.requests[0]
	assert.Equal(t, "CBME Survey <survey@example.com>", req.From)
	assert.Equal(t, []string{"office@example.com"}, req.To)
	assert.Equal(t, "【CBME問卷】護理師 - 台南院區 - 王小明", req.Subject)
	assert.Contains(t, req.Text, "CBME 執行狀況調查問卷回覆")
	assert.True(t, sender.deadline, "send must be bounded by the mail timeout")
}

func TestEmailNotifier_SetRecipients(t *testing.T) {
	sender := &fakeSender{}
	n := newEmailNotifier(sender, config.MailConfig{From: "a@example.com", To: []string{"b@example.com"}}, time.UTC)
	n.SetRecipients("c@example.com", []string{"d@example.com", "e@example.com"})

	require.NoError(t, n.Notify(context.Background(), fixtureResponse(t)))
	assert.Equal(t, "c@example.com", sender.requests[0].From)
	assert.Equal(t, []string{"d@example.com", "e@example.com"}, sender.requests[0].To)
}

func TestEmailNotifier_WrapsFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("rate limited")}
	n := newEmailNotifier(sender, config.MailConfig{To: []string{"b@example.com"}}, time.UTC)

	err := n.Notify(context.Background(), fixtureResponse(t))
	assert.ErrorIs(t, err, util.ErrNotification)
}
