// Package sendalertnotification delivers a triggered price alert to the
// farmer over email (SES) and SMS (SNS).
package sendalertnotification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"

	cerrors "agrimandi-workers/internal/common/errors"
	"agrimandi-workers/internal/common/logger"
	"agrimandi-workers/internal/common/metrics"
	"agrimandi-workers/internal/models"
)

const (
	TaskType = "send-alert-notification"
)

var (
	ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")
	ErrNoRecipient            = errors.New("NO_RECIPIENT")
)

// EmailSender is satisfied by aws.SESClient.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

// SMSSender is satisfied by aws.SNSClient.
type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "NOTIFICATION_SEND_FAILED"
		if errors.Is(err, ErrNoRecipient) {
			errorCode = "NO_RECIPIENT"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input.Email == "" && input.Phone == "" {
		return nil, fmt.Errorf("%w: alert %s has no email or phone", ErrNoRecipient, input.Alert.AlertID)
	}

	subject, body := h.composeMessage(input.Alert)
	output := &Output{
		NotificationID: uuid.New().String(),
		Channels:       []string{},
		Subject:        subject,
	}

	var lastErr error

	if h.config.EmailEnabled && h.email != nil && input.Email != "" {
		if err := h.sendEmail(ctx, input.Email, subject, body); err != nil {
			h.logger.Warn("email delivery failed", map[string]interface{}{
				"alertId": input.Alert.AlertID,
				"error":   err.Error(),
			})
			lastErr = err
		} else {
			output.Channels = append(output.Channels, "email")
		}
	}

	if h.config.SMSEnabled && h.sms != nil && input.Phone != "" {
		if err := h.sendSMS(ctx, input.Phone, body); err != nil {
			h.logger.Warn("sms delivery failed", map[string]interface{}{
				"alertId": input.Alert.AlertID,
				"error":   err.Error(),
			})
			lastErr = err
		} else {
			output.Channels = append(output.Channels, "sms")
		}
	}

	// Partial delivery counts as success; only a total miss fails the job.
	if len(output.Channels) == 0 {
		if lastErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrNotificationSendFailed, lastErr)
		}
		return nil, fmt.Errorf("%w: no channel enabled for alert %s", ErrNotificationSendFailed, input.Alert.AlertID)
	}

	return output, nil
}

func (h *Handler) composeMessage(alert models.TriggeredAlert) (string, string) {
	movement := "risen above"
	if alert.Direction == models.AlertBelow {
		movement = "fallen below"
	}

	subject := fmt.Sprintf("%s price alert: ₹%.2f/quintal", alert.Crop, alert.Price)
	body := fmt.Sprintf(
		"%s has %s your alert level of ₹%.2f/quintal.\nCurrent mandi price: ₹%.2f/quintal.\nOpen the dashboard to review prices and selling options.",
		alert.Crop, movement, alert.Threshold, alert.Price,
	)
	return subject, body
}

func (h *Handler) sendEmail(ctx context.Context, to, subject, body string) error {
	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{to},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, phone, body string) error {
	_, err := h.sms.Publish(ctx, &sns.PublishInput{
		Message:     aws.String(body),
		PhoneNumber: aws.String(phone),
	})
	return err
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, errorCode).Inc()

	code := cerrors.ErrorCode(errorCode)
	cerrors.NewErrorHandler(h.logger).HandleJobError(context.Background(), client, job, &cerrors.StandardError{
		Code:      code,
		Message:   errorMessage,
		Retryable: cerrors.IsRetryableErrorCode(code),
		Timestamp: time.Now().UTC(),
	})
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
