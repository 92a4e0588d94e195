package service

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	texttemplate "text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/sirupsen/logrus"
)

// EmailService handles sending emails via Amazon SES
type EmailService struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	logger     logrus.FieldLogger
}

// NewEmailService creates a new email service
func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool, logger logrus.FieldLogger) (*EmailService, error) {
	// If fromEmail is empty, create a disabled service
	if fromEmail == "" {
		logger.Info("Email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{
			enabled:    false,
			debug:      debug,
			appBaseURL: appBaseURL,
			logger:     logger,
		}, nil
	}

	if debug {
		logger.WithFields(logrus.Fields{
			"region":   awsRegion,
			"from":     fromEmail,
			"fromName": fromName,
			"baseURL":  appBaseURL,
		}).Debug("Initializing email service with AWS SES")
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	logger.WithFields(logrus.Fields{"from": fromEmail, "region": awsRegion}).Info("Email service enabled")

	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
		logger:     logger,
	}, nil
}

// IsEnabled returns whether the email service is enabled
func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

// SendWeeklyDigest emails a learner their progress over the last seven days
func (s *EmailService) SendWeeklyDigest(ctx context.Context, toEmail, toName string, digest WeeklyDigest) error {
	if !s.enabled {
		s.logger.WithField("to", toEmail).Info("Skipping email send (service disabled): weekly digest")
		return nil
	}

	data := digestTemplateData{Name: toName, Digest: digest, AppBaseURL: s.appBaseURL}

	var html, text bytes.Buffer
	if err := digestHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("render digest: %w", err)
	}
	if err := digestText.Execute(&text, data); err != nil {
		return fmt.Errorf("render digest: %w", err)
	}

	subject := fmt.Sprintf("Your week: %d minutes, %d day streak", digest.Stats.LastWeekMinutes, digest.Stats.DaysStreak)
	return s.sendEmail(ctx, toEmail, subject, html.String(), text.String())
}

// sendEmail sends an email using Amazon SES
func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	if s.debug {
		s.logger.WithFields(logrus.Fields{
			"from":      fromAddress,
			"to":        toEmail,
			"subject":   subject,
			"htmlBytes": len(htmlBody),
			"textBytes": len(textBody),
		}).Debug("Calling SES SendEmail API")
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	entry := s.logger.WithFields(logrus.Fields{"to": toEmail, "subject": subject})
	if result.MessageId != nil {
		entry = entry.WithField("messageId", *result.MessageId)
	}
	entry.Info("Email sent successfully")
	return nil
}

type digestTemplateData struct {
	Name       string
	Digest     WeeklyDigest
	AppBaseURL string
}

var digestHTML = template.Must(template.New("digest.html").Parse(`
<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<style>
		body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
		.container { max-width: 600px; margin: 0 auto; padding: 20px; }
		.header { background-color: #2f855a; color: white; padding: 20px; text-align: center; border-radius: 5px 5px 0 0; }
		.content { background-color: #f9f9f9; padding: 30px; border-radius: 0 0 5px 5px; }
		.button { display: inline-block; padding: 12px 30px; background-color: #2f855a; color: white; text-decoration: none; border-radius: 5px; margin: 20px 0; }
		.footer { text-align: center; margin-top: 20px; font-size: 12px; color: #666; }
	</style>
</head>
<body>
	<div class="container">
		<div class="header">
			<h1>Your week in review</h1>
		</div>
		<div class="content">
			<p>Hi {{.Name}},</p>
			<ul>
				<li><strong>{{.Digest.Stats.LastWeekMinutes}}</strong> minutes studied this week</li>
				<li><strong>{{.Digest.DaysOnGoal}}</strong> of 7 days on your {{.Digest.DailyGoal}} minute goal</li>
				<li><strong>{{.Digest.Stats.DaysStreak}}</strong> day streak</li>
				<li><strong>{{.Digest.Stats.LessonsCompleted}}</strong> lessons completed, <strong>{{.Digest.Stats.TotalXP}}</strong> XP in total</li>
			</ul>
			<p style="text-align: center;">
				<a href="{{.AppBaseURL}}/dashboard" class="button">Keep learning</a>
			</p>
		</div>
		<div class="footer">
			<p>This is an automated email from Linguapath. Please do not reply.</p>
		</div>
	</div>
</body>
</html>
`))

var digestText = texttemplate.Must(texttemplate.New("digest.txt").Parse(`Hi {{.Name}},

Your week in review:
- {{.Digest.Stats.LastWeekMinutes}} minutes studied this week
- {{.Digest.DaysOnGoal}} of 7 days on your {{.Digest.DailyGoal}} minute goal
- {{.Digest.Stats.DaysStreak}} day streak
- {{.Digest.Stats.LessonsCompleted}} lessons completed, {{.Digest.Stats.TotalXP}} XP in total

Keep learning: {{.AppBaseURL}}/dashboard

---
This is an automated email from Linguapath. Please do not reply.
`))
