package notify

import (
	"context"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/healthfirst/scheduling-assistant/internal/config"
	"github.com/healthfirst/scheduling-assistant/pkg/logging"
)

// BuildEmailSender selects the email provider from configuration.
// "auto" prefers SES when a from-address is set, then SendGrid, then
// the logging stub.
func BuildEmailSender(ctx context.Context, cfg *config.Config, logger *logging.Logger) (EmailSender, error) {
	provider := cfg.EmailProvider
	if provider == "" {
		provider = "auto"
	}

	switch provider {
	case "ses":
		return buildSESSender(ctx, cfg, logger)
	case "sendgrid":
		sender := NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender == nil {
			return nil, fmt.Errorf("notify: sendgrid selected but SENDGRID_API_KEY is empty")
		}
		return sender, nil
	case "stub":
		return NewStubEmailSender(logger), nil
	case "auto":
		if cfg.SESFromEmail != "" {
			return buildSESSender(ctx, cfg, logger)
		}
		if cfg.SendGridAPIKey != "" && cfg.SendGridFromEmail != "" {
			return NewSendGridSender(SendGridConfig{
				APIKey:    cfg.SendGridAPIKey,
				FromEmail: cfg.SendGridFromEmail,
				FromName:  cfg.SendGridFromName,
			}, logger), nil
		}
		logger.Warn("no email provider configured, using stub sender")
		return NewStubEmailSender(logger), nil
	default:
		return nil, fmt.Errorf("notify: unknown email provider %q", provider)
	}
}

func buildSESSender(ctx context.Context, cfg *config.Config, logger *logging.Logger) (EmailSender, error) {
	loaders := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.AWSRegion)}
	if strings.TrimSpace(cfg.AWSAccessKeyID) != "" && strings.TrimSpace(cfg.AWSSecretAccessKey) != "" {
		loaders = append(loaders, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loaders...)
	if err != nil {
		return nil, fmt.Errorf("notify: load aws config: %w", err)
	}

	sender := NewSESSender(sesv2.NewFromConfig(awsCfg), SESConfig{
		FromEmail: cfg.SESFromEmail,
		FromName:  cfg.SESFromName,
	}, logger)
	if sender == nil {
		return nil, fmt.Errorf("notify: SES client could not be constructed")
	}
	return sender, nil
}

// BuildSMSSender selects the SMS provider from configuration. "auto"
// uses Telnyx when an API key is present and falls back to the stub.
func BuildSMSSender(cfg *config.Config, logger *logging.Logger) (SMSSender, error) {
	provider := cfg.SMSProvider
	if provider == "" {
		provider = "auto"
	}

	switch provider {
	case "telnyx":
		return NewTelnyxSender(TelnyxConfig{
			APIKey:             cfg.TelnyxAPIKey,
			FromNumber:         cfg.TelnyxFromNumber,
			MessagingProfileID: cfg.TelnyxMessagingProfileID,
		}, logger)
	case "stub":
		return NewStubSMSSender(logger), nil
	case "auto":
		if cfg.TelnyxAPIKey != "" && cfg.TelnyxFromNumber != "" {
			return NewTelnyxSender(TelnyxConfig{
				APIKey:             cfg.TelnyxAPIKey,
				FromNumber:         cfg.TelnyxFromNumber,
				MessagingProfileID: cfg.TelnyxMessagingProfileID,
			}, logger)
		}
		logger.Warn("no SMS provider configured, using stub sender")
		return NewStubSMSSender(logger), nil
	default:
		return nil, fmt.Errorf("notify: unknown sms provider %q", provider)
	}
}
