package service

import (
	"bytes"
	"context"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"nihongo/internal/logger"
)

// sesSender is the slice of the SES client the service uses.
type sesSender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// EmailService sends account mail through Amazon SES. Without a sender
// address it is disabled and every send is a logged no-op.
type EmailService struct {
	client     sesSender
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	debug      bool
	log        *logger.Logger
}

func NewEmailService(ctx context.Context, awsRegion, fromEmail, fromName, appBaseURL string, debug bool, log *logger.Logger) (*EmailService, error) {
	if fromEmail == "" {
		log.Info("email service disabled: SES_FROM_EMAIL not configured")
		return &EmailService{debug: debug, log: log}, nil
	}

	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(awsRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	log.Info("email service enabled", "from", fromEmail, "region", awsRegion)
	return &EmailService{
		client:     sesv2.NewFromConfig(cfg),
		fromEmail:  fromEmail,
		fromName:   fromName,
		appBaseURL: appBaseURL,
		enabled:    true,
		debug:      debug,
		log:        log,
	}, nil
}

func (s *EmailService) IsEnabled() bool {
	return s.enabled
}

type welcomeData struct {
	Name     string
	LoginURL string
}

var welcomeHTML = htmltemplate.Must(htmltemplate.New("welcome").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
	<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
		<h1 style="color: #d94c4c;">Chào mừng bạn đến với Nihongo!</h1>
		<p>Xin chào {{.Name}},</p>
		<p>Tài khoản của bạn đã được tạo thành công. Hãy đăng nhập để bắt đầu bài học tiếng Nhật đầu tiên.</p>
		<ul>
			<li>Học bảng chữ Hiragana và Katakana</li>
			<li>Luyện nghe và luyện viết sau mỗi bài</li>
			<li>Theo dõi tiến độ khóa học</li>
		</ul>
		<p style="text-align: center;">
			<a href="{{.LoginURL}}" style="display: inline-block; padding: 12px 30px; background-color: #d94c4c; color: white; text-decoration: none; border-radius: 5px;">Đăng nhập</a>
		</p>
		<p style="font-size: 12px; color: #666;">Đây là email tự động, vui lòng không trả lời.</p>
	</div>
</body>
</html>
`))

var welcomeText = texttemplate.Must(texttemplate.New("welcome").Parse(`Xin chào {{.Name}},

Tài khoản Nihongo của bạn đã được tạo thành công. Hãy đăng nhập để bắt đầu bài học tiếng Nhật đầu tiên.

Đăng nhập: {{.LoginURL}}

---
Đây là email tự động, vui lòng không trả lời.
`))

// SendWelcomeEmail greets a newly registered learner.
func (s *EmailService) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.enabled {
		s.log.Debug("skipping welcome email, service disabled", "to", toEmail)
		return nil
	}

	data := welcomeData{Name: toName, LoginURL: s.appBaseURL + "/login"}
	var html, text bytes.Buffer
	if err := welcomeHTML.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}
	if err := welcomeText.Execute(&text, data); err != nil {
		return fmt.Errorf("failed to render welcome email: %w", err)
	}

	return s.sendEmail(ctx, toEmail, "Chào mừng bạn đến với Nihongo!", html.String(), text.String())
}

func (s *EmailService) sendEmail(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	fromAddress := s.fromEmail
	if s.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", s.fromName, s.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject), Charset: aws.String("UTF-8")},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
					Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
				},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email to %s: %w", toEmail, err)
	}

	if s.debug && result.MessageId != nil {
		s.log.Debug("SES message accepted", "message_id", *result.MessageId)
	}
	s.log.Info("email sent", "to", toEmail, "subject", subject)
	return nil
}
