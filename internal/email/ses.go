package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/rs/zerolog/log"
)

const charsetUTF8 = "UTF-8"

// sesAPI is the part of the SESv2 client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESClient sends plain-text mail through AWS SESv2.
type SESClient struct {
	api    sesAPI
	sender string
}

// NewSESClient builds a client from static credentials. All arguments are
// required.
func NewSESClient(ctx context.Context, accessKeyID, secretAccessKey, region, sender string) (*SESClient, error) {
	if accessKeyID == "" || secretAccessKey == "" || region == "" {
		return nil, fmt.Errorf("ses credentials and region are required")
	}
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("ses sender is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SESClient{api: sesv2.NewFromConfig(awsCfg), sender: sender}, nil
}

func (c *SESClient) Send(ctx context.Context, recipient, subject, body string) error {
	if c == nil || c.api == nil {
		return fmt.Errorf("ses client is not initialized")
	}
	if strings.TrimSpace(recipient) == "" {
		return fmt.Errorf("recipient is required")
	}

	out, err := c.api.SendEmail(ctx, sendEmailInput(c.sender, recipient, subject, body))
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("recipient", recipient).
			Str("subject", subject).
			Msg("Failed to send SES email")
		return fmt.Errorf("send ses email: %w", err)
	}

	event := log.Ctx(ctx).Debug().Str("recipient", recipient)
	if out != nil && out.MessageId != nil {
		event = event.Str("message_id", *out.MessageId)
	}
	event.Msg("SES email accepted")
	return nil
}

func sendEmailInput(sender, recipient, subject, body string) *sesv2.SendEmailInput {
	return &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(sender),
		Destination:      &types.Destination{ToAddresses: []string{recipient}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String(charsetUTF8)},
				Body: &types.Body{
					Text: &types.Content{Data: aws.String(body), Charset: aws.String(charsetUTF8)},
				},
			},
		},
	}
}
