package usecase

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"log/slog"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/shandysiswandi/gosignup/internal/pkg/config"
	"github.com/shandysiswandi/gosignup/internal/pkg/instrument"
	"github.com/shandysiswandi/gosignup/internal/pkg/mail"
	"github.com/shandysiswandi/gosignup/internal/pkg/sms"
	"github.com/shandysiswandi/gosignup/internal/signup/entity"
	"go.opentelemetry.io/otel/attribute"
)

const defaultAppName = "GoSignup"

//go:embed templates/*.tmpl
var templateFS embed.FS

var (
	emailHTMLTemplate = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/otp_email.html.tmpl"))
	emailTextTemplate = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/otp_email.txt.tmpl"))
	smsTemplate       = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/otp_sms.txt.tmpl"))
)

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type repoSMS interface {
	Send(ctx context.Context, msg sms.Message) error
}

type otpMessageData struct {
	AppName       string
	Username      string
	Code          string
	ExpiresIn     string
	PhoneCodeSent bool
}

// DualChannelNotifier sends the phone code by SMS and then the email code
// by email. The email tells whether the SMS went out.
type DualChannelNotifier struct {
	repoMail repoMail
	repoSMS  repoSMS
	cfg      config.Config
	ins      instrument.Instrumentation
}

func NewDualChannelNotifier(rm repoMail, rs repoSMS, cfg config.Config, ins instrument.Instrumentation) *DualChannelNotifier {
	return &DualChannelNotifier{repoMail: rm, repoSMS: rs, cfg: cfg, ins: ins}
}

func (n *DualChannelNotifier) Notify(ctx context.Context, to entity.ChannelTargets, codes entity.OTPCodes, who entity.Identity) entity.DeliveryReport {
	ctx, span := n.ins.Tracer("signup.usecase").Start(ctx, "Notify")
	defer span.End()

	data := otpMessageData{
		AppName:   n.appName(),
		Username:  who.Username,
		ExpiresIn: humanizeWindow(OTPWindow(n.cfg)),
	}

	var report entity.DeliveryReport

	report.SMSErr = n.sendSMS(ctx, to.Phone, codes.Phone, data)
	report.SMSSent = report.SMSErr == nil

	data.PhoneCodeSent = report.SMSSent
	report.EmailErr = n.sendEmail(ctx, to.Email, codes.Email, data)
	report.EmailSent = report.EmailErr == nil

	span.SetAttributes(
		attribute.Bool("signup.sms_sent", report.SMSSent),
		attribute.Bool("signup.email_sent", report.EmailSent),
	)

	return report
}

func (n *DualChannelNotifier) sendSMS(ctx context.Context, phone, code string, data otpMessageData) error {
	to, err := entity.NormalizePhone(phone, n.cfg.GetString("modules.signup.phone_country_code"))
	if err != nil {
		slog.WarnContext(ctx, "phone number rejected", "error", err)
		return err
	}

	data.Code = code
	var body bytes.Buffer
	if err := smsTemplate.Execute(&body, data); err != nil {
		slog.ErrorContext(ctx, "failed to render sms otp", "error", err)
		return fmt.Errorf("%w: %w", entity.ErrSMSDeliveryFailed, err)
	}

	if err := n.repoSMS.Send(ctx, sms.Message{To: to, Body: body.String()}); err != nil {
		slog.ErrorContext(ctx, "failed to send sms otp", "error", err)
		return fmt.Errorf("%w: %w", entity.ErrSMSDeliveryFailed, err)
	}

	return nil
}

func (n *DualChannelNotifier) sendEmail(ctx context.Context, email, code string, data otpMessageData) error {
	data.Code = code

	var html, text bytes.Buffer
	if err := emailHTMLTemplate.Execute(&html, data); err != nil {
		slog.ErrorContext(ctx, "failed to render email otp", "error", err)
		return fmt.Errorf("%w: %w", entity.ErrEmailDeliveryFailed, err)
	}
	if err := emailTextTemplate.Execute(&text, data); err != nil {
		slog.ErrorContext(ctx, "failed to render email otp", "error", err)
		return fmt.Errorf("%w: %w", entity.ErrEmailDeliveryFailed, err)
	}

	if err := n.repoMail.Send(ctx, mail.Message{
		To:       []string{email},
		Subject:  data.AppName + " Signup - Email Verification OTP",
		TextBody: text.String(),
		HTMLBody: html.String(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to send email otp", "email", email, "error", err)
		return fmt.Errorf("%w: %w", entity.ErrEmailDeliveryFailed, err)
	}

	return nil
}

func (n *DualChannelNotifier) appName() string {
	if name := strings.TrimSpace(n.cfg.GetString("app.name")); name != "" {
		return name
	}
	return defaultAppName
}

// humanizeWindow renders d as "5 minutes" or "90 seconds".
func humanizeWindow(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		return plural(int(d/time.Minute), "minute")
	}
	return plural(int(d/time.Second), "second")
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
