package telephony

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SMSSender is the fire-and-forget text channel used when voice-call
// initiation is unavailable or fails. Send failures are logged by callers,
// never surfaced.
type SMSSender interface {
	Send(ctx context.Context, phone, message string) error
}

// SNSSender delivers SMS through AWS SNS as transactional messages.
type SNSSender struct {
	client *sns.Client
}

func NewSNSSender(client *sns.Client) *SNSSender {
	return &SNSSender{client: client}
}

func (s *SNSSender) Send(ctx context.Context, phone, message string) error {
	if s.client == nil {
		return errors.New("telephony: sns client is nil")
	}
	if phone == "" {
		return errors.New("telephony: sms destination required")
	}
	_, err := s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(message),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SMSType": {
				DataType:    aws.String("String"),
				StringValue: aws.String("Transactional"),
			},
		},
	})
	return err
}

// LogSMSSender is used when no SMS region is configured (local/dev). It logs
// the message instead of sending it.
type LogSMSSender struct {
	Log *slog.Logger
}

func (s LogSMSSender) Send(_ context.Context, phone, message string) error {
	log := s.Log
	if log == nil {
		log = slog.Default()
	}
	log.Info("sms send skipped (no region configured)", "to", phone, "chars", len(message))
	return nil
}
