package sendalertnotification

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"

	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type fakeEmailSender struct {
	inputs []*ses.SendEmailInput
	err    error
}

func (f *fakeEmailSender) SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &ses.SendEmailOutput{}, nil
}

type fakeSMSSender struct {
	inputs []*sns.PublishInput
	err    error
}

func (f *fakeSMSSender) Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	return &sns.PublishOutput{}, nil
}

func testAlert() models.TriggeredAlert {
	return models.TriggeredAlert{
		AlertID:     "a-1",
		UserID:      "farmer-1",
		Crop:        "Wheat",
		Threshold:   2200,
		Direction:   models.AlertAbove,
		Price:       2250.5,
		TriggeredAt: time.Now().UTC(),
	}
}

// ==========================
// Handler Tests
// ==========================

func TestHandler_Execute_SendsBothChannels(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := NewHandler(LoadConfig(), email, sms, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Alert: testAlert(),
		Email: "farmer@example.com",
		Phone: "+919876543210",
	})

	assert.NoError(t, err)
	assert.NotEmpty(t, output.NotificationID)
	assert.Equal(t, []string{"email", "sms"}, output.Channels)
	assert.Contains(t, output.Subject, "Wheat")
	assert.Contains(t, output.Subject, "2250.50")

	assert.Len(t, email.inputs, 1)
	assert.Equal(t, []string{"farmer@example.com"}, email.inputs[0].Destination.ToAddresses)
	assert.Contains(t, *email.inputs[0].Message.Body.Text.Data, "risen above")

	assert.Len(t, sms.inputs, 1)
	assert.Equal(t, "+919876543210", *sms.inputs[0].PhoneNumber)
}

func TestHandler_Execute_BelowDirectionWording(t *testing.T) {
	email := &fakeEmailSender{}
	handler := NewHandler(LoadConfig(), email, nil, logger.NewTestLogger(t))

	alert := testAlert()
	alert.Direction = models.AlertBelow
	alert.Crop = "Onion"
	alert.Price = 1380

	_, err := handler.Execute(context.Background(), &Input{
		Alert: alert,
		Email: "farmer@example.com",
	})

	assert.NoError(t, err)
	assert.Contains(t, *email.inputs[0].Message.Body.Text.Data, "fallen below")
	assert.Contains(t, *email.inputs[0].Message.Body.Text.Data, "Onion")
}

func TestHandler_Execute_EmailOnlyWhenNoPhone(t *testing.T) {
	email := &fakeEmailSender{}
	sms := &fakeSMSSender{}
	handler := NewHandler(LoadConfig(), email, sms, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Alert: testAlert(),
		Email: "farmer@example.com",
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"email"}, output.Channels)
	assert.Empty(t, sms.inputs)
}

func TestHandler_Execute_PartialDeliveryStillSucceeds(t *testing.T) {
	email := &fakeEmailSender{err: assert.AnError}
	sms := &fakeSMSSender{}
	handler := NewHandler(LoadConfig(), email, sms, logger.NewTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Alert: testAlert(),
		Email: "farmer@example.com",
		Phone: "+919876543210",
	})

	assert.NoError(t, err)
	assert.Equal(t, []string{"sms"}, output.Channels)
}

func TestHandler_Execute_AllChannelsFail(t *testing.T) {
	email := &fakeEmailSender{err: assert.AnError}
	sms := &fakeSMSSender{err: assert.AnError}
	handler := NewHandler(LoadConfig(), email, sms, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		Alert: testAlert(),
		Email: "farmer@example.com",
		Phone: "+919876543210",
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}

func TestHandler_Execute_NoRecipient(t *testing.T) {
	handler := NewHandler(LoadConfig(), &fakeEmailSender{}, &fakeSMSSender{}, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Alert: testAlert()})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNoRecipient)
}

func TestHandler_Execute_DisabledChannelsFail(t *testing.T) {
	cfg := LoadConfig()
	cfg.EmailEnabled = false
	cfg.SMSEnabled = false
	handler := NewHandler(cfg, &fakeEmailSender{}, &fakeSMSSender{}, logger.NewTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		Alert: testAlert(),
		Email: "farmer@example.com",
	})

	assert.Error(t, err)
	assert.ErrorIs(t, err, ErrNotificationSendFailed)
}
