// Package mailer sends order-confirmation emails through a bulk templated
// send capability. Delivery partiality is data, not an error: the caller
// gets back the addresses that failed.
package mailer

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	sestypes "github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Destination is one recipient with their per-recipient template data.
type Destination struct {
	Email        string
	TemplateData string
}

// SendResult reports the outcome for one destination of a bulk send.
type SendResult struct {
	Email string
	OK    bool
}

// BulkSender is the delivery capability: one templated send to a chunk of
// destinations, with per-recipient replacement data and shared defaults.
type BulkSender interface {
	SendBulk(ctx context.Context, defaultTemplateData string, destinations []Destination) ([]SendResult, error)
}

// SESConfig names the SES template and sending identity.
type SESConfig struct {
	Source           string
	Template         string
	ConfigurationSet string
}

// SESSender implements BulkSender on SES bulk templated email.
type SESSender struct {
	client *sesv2.Client
	cfg    SESConfig
}

// NewSESSender builds a sender from the ambient AWS configuration.
func NewSESSender(ctx context.Context, cfg SESConfig) (*SESSender, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESSender{client: sesv2.NewFromConfig(awsCfg), cfg: cfg}, nil
}

// NewSESSenderWithClient wraps an existing SES client.
func NewSESSenderWithClient(client *sesv2.Client, cfg SESConfig) *SESSender {
	return &SESSender{client: client, cfg: cfg}
}

// SendBulk issues one SendBulkEmail call and maps the per-entry statuses
// back onto the destinations in order.
func (sender *SESSender) SendBulk(ctx context.Context, defaultTemplateData string, destinations []Destination) ([]SendResult, error) {
	entries := make([]sestypes.BulkEmailEntry, 0, len(destinations))
	for _, destination := range destinations {
		entries = append(entries, sestypes.BulkEmailEntry{
			Destination: &sestypes.Destination{
				ToAddresses: []string{destination.Email},
			},
			ReplacementEmailContent: &sestypes.ReplacementEmailContent{
				ReplacementTemplate: &sestypes.ReplacementTemplate{
					ReplacementTemplateData: aws.String(destination.TemplateData),
				},
			},
		})
	}

	output, err := sender.client.SendBulkEmail(ctx, &sesv2.SendBulkEmailInput{
		FromEmailAddress:     aws.String(sender.cfg.Source),
		ConfigurationSetName: aws.String(sender.cfg.ConfigurationSet),
		DefaultContent: &sestypes.BulkEmailContent{
			Template: &sestypes.Template{
				TemplateName: aws.String(sender.cfg.Template),
				TemplateData: aws.String(defaultTemplateData),
			},
		},
		BulkEmailEntries: entries,
	})
	if err != nil {
		return nil, fmt.Errorf("send bulk email: %w", err)
	}

	results := make([]SendResult, 0, len(destinations))
	for entryIndex, entryResult := range output.BulkEmailEntryResults {
		if entryIndex >= len(destinations) {
			break
		}
		results = append(results, SendResult{
			Email: destinations[entryIndex].Email,
			OK:    entryResult.Status == sestypes.BulkEmailStatusSuccess,
		})
	}
	return results, nil
}
