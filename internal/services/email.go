package services

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"

	"github.com/manoj0727/Nexify-server/internal/models"
)

// SESEmailSender sends verification emails through AWS SES.
type SESEmailSender struct {
	client *ses.Client
	from   string
}

func NewSESEmailSender(region, from string) (*SESEmailSender, error) {
	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &SESEmailSender{
		client: ses.NewFromConfig(cfg),
		from:   from,
	}, nil
}

// SendLoginVerification emails the verify/block links for a suspicious
// login, including the fingerprint so the user can recognize (or not) the
// attempt. Returns the SES message id.
func (s *SESEmailSender) SendLoginVerification(ctx context.Context, to, name, verifyLink, blockLink string, fp models.Fingerprint) (string, error) {
	subject := "Action Required: Verify Recent Login"

	htmlBody := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>We noticed a sign-in to your Nexify account from a device or location we don't recognize:</p>
<ul>
  <li>IP address: %s</li>
  <li>Location: %s, %s</li>
  <li>Device: %s (%s)</li>
  <li>Browser: %s</li>
  <li>Operating system: %s</li>
</ul>
<p>If this was you, confirm the sign-in:</p>
<p><a href="%s">Yes, it was me — verify this login</a></p>
<p>If you don't recognize this activity, block it:</p>
<p><a href="%s">No, block this device</a></p>
<p>These links expire in 30 minutes.</p>
</body></html>`,
		name, fp.IP, fp.City, fp.Country, fp.Device, fp.DeviceType, fp.Browser, fp.OS,
		verifyLink, blockLink)

	textBody := fmt.Sprintf(`Hi %s,

We noticed a sign-in to your Nexify account from a device or location we don't recognize:

  IP address: %s
  Location: %s, %s
  Device: %s (%s)
  Browser: %s
  Operating system: %s

If this was you, verify the login: %s
If you don't recognize this activity, block it: %s

These links expire in 30 minutes.`,
		name, fp.IP, fp.City, fp.Country, fp.Device, fp.DeviceType, fp.Browser, fp.OS,
		verifyLink, blockLink)

	return s.send(ctx, to, subject, htmlBody, textBody)
}

// SendSignupVerification emails the 5-digit signup code and verification
// link. Returns the SES message id.
func (s *SESEmailSender) SendSignupVerification(ctx context.Context, to, name, code, link string) (string, error) {
	subject := "Verify your email address"

	htmlBody := fmt.Sprintf(`<html><body>
<p>Hi %s,</p>
<p>Welcome to Nexify! Use the code below to verify your email address:</p>
<p style="font-size:24px;letter-spacing:4px"><strong>%s</strong></p>
<p>Or click the link: <a href="%s">Verify email</a></p>
<p>The code expires in 30 minutes. If you didn't sign up, ignore this email.</p>
</body></html>`, name, code, link)

	textBody := fmt.Sprintf(`Hi %s,

Welcome to Nexify! Use the code below to verify your email address:

  %s

Or open this link: %s

The code expires in 30 minutes. If you didn't sign up, ignore this email.`, name, code, link)

	return s.send(ctx, to, subject, htmlBody, textBody)
}

func (s *SESEmailSender) send(ctx context.Context, to, subject, htmlBody, textBody string) (string, error) {
	input := &ses.SendEmailInput{
		Source: aws.String(fmt.Sprintf("Nexify <%s>", s.from)),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody)},
				Text: &types.Content{Data: aws.String(textBody)},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return aws.ToString(result.MessageId), nil
}
