package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

func TestNewSendGridSender_NilWithoutAPIKey(t *testing.T) {
	sender := NewSendGridSender("", Mailbox{Address: "test@example.com"}, nil)

	if sender != nil {
		t.Error("expected nil sender when API key is empty")
	}
}

func TestNewSendGridSender_DefaultFromName(t *testing.T) {
	sender := NewSendGridSender("test-key", Mailbox{Address: "test@example.com"}, nil)

	if sender == nil {
		t.Fatal("expected non-nil sender")
	}
	if sender.from.Name != DefaultFromName {
		t.Errorf("expected default from name %q, got %q", DefaultFromName, sender.from.Name)
	}
}

func TestSendGridSender_Send_NilClient(t *testing.T) {
	sender := &SendGridSender{}

	err := sender.Send(context.Background(), EmailMessage{
		To:      Mailbox{Address: "recipient@example.com"},
		Subject: "Test",
		Body:    "Test body",
	})
	if err == nil {
		t.Error("expected error when client is nil")
	}
}

func TestMailboxString(t *testing.T) {
	if got := (Mailbox{Address: "a@b.c"}).String(); got != "a@b.c" {
		t.Errorf("unexpected bare mailbox: %q", got)
	}
	if got := (Mailbox{Name: "A", Address: "a@b.c"}).String(); got != "A <a@b.c>" {
		t.Errorf("unexpected named mailbox: %q", got)
	}
}

func TestStubEmailSender_Send(t *testing.T) {
	sender := NewStubEmailSender(nil)

	if err := sender.Send(context.Background(), EmailMessage{To: Mailbox{Address: "recipient@example.com"}, Subject: "Test"}); err != nil {
		t.Errorf("stub sender should not return error, got: %v", err)
	}
}

type fakeSES struct {
	input *sesv2.SendEmailInput
	err   error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = in
	if f.err != nil {
		return nil, f.err
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func TestSESSender_Send(t *testing.T) {
	api := &fakeSES{}
	sender := NewSESSender(api, Mailbox{Address: "bot@example.com"}, nil)
	if sender == nil {
		t.Fatal("expected non-nil sender")
	}

	err := sender.Send(context.Background(), EmailMessage{
		To:       Mailbox{Name: "Me", Address: "me@example.com"},
		Subject:  "Run report",
		Body:     "plain",
		HTML:     "<p>html</p>",
		Category: ReportCategory,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	in := api.input
	if got := aws.ToString(in.FromEmailAddress); got != "CashBarber Autobook <bot@example.com>" {
		t.Errorf("unexpected from: %q", got)
	}
	if len(in.Destination.ToAddresses) != 1 || in.Destination.ToAddresses[0] != "Me <me@example.com>" {
		t.Errorf("unexpected destination: %v", in.Destination.ToAddresses)
	}
	if got := aws.ToString(in.Content.Simple.Subject.Data); got != "Run report" {
		t.Errorf("unexpected subject: %q", got)
	}
	if got := aws.ToString(in.Content.Simple.Body.Text.Data); got != "plain" {
		t.Errorf("unexpected text body: %q", got)
	}
	if got := aws.ToString(in.Content.Simple.Body.Html.Data); got != "<p>html</p>" {
		t.Errorf("unexpected html body: %q", got)
	}
	if len(in.EmailTags) != 1 || aws.ToString(in.EmailTags[0].Value) != ReportCategory {
		t.Errorf("unexpected tags: %v", in.EmailTags)
	}
}

func TestSESSender_SendError(t *testing.T) {
	sender := NewSESSender(&fakeSES{err: errors.New("throttled")}, Mailbox{Address: "bot@example.com"}, nil)
	if err := sender.Send(context.Background(), EmailMessage{To: Mailbox{Address: "me@example.com"}, Body: "x"}); err == nil {
		t.Error("expected error from SES")
	}
}

func TestNewSESSender_NilClient(t *testing.T) {
	if NewSESSender(nil, Mailbox{}, nil) != nil {
		t.Error("expected nil sender for nil client")
	}
	var typedNil *sesv2.Client
	if NewSESSender(typedNil, Mailbox{}, nil) != nil {
		t.Error("expected nil sender for typed nil client")
	}
}

func TestNewEmailSender_Selection(t *testing.T) {
	tests := []struct {
		name string
		cfg  SenderConfig
		ses  SESAPI
		want string
	}{
		{name: "sendgrid with key", cfg: SenderConfig{SendGridAPIKey: "k", From: Mailbox{Address: "a@b.c"}}, want: "*notify.SendGridSender"},
		{name: "explicit sendgrid without key", cfg: SenderConfig{Provider: "sendgrid"}, want: "*notify.StubEmailSender"},
		{name: "ses with client", cfg: SenderConfig{Provider: "SES"}, ses: &fakeSES{}, want: "*notify.SESSender"},
		{name: "ses without client", cfg: SenderConfig{Provider: "ses"}, want: "*notify.StubEmailSender"},
		{name: "unknown provider", cfg: SenderConfig{Provider: "mailgun", SendGridAPIKey: "k"}, want: "*notify.StubEmailSender"},
		{name: "nothing configured", want: "*notify.StubEmailSender"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewEmailSender(tt.cfg, tt.ses, nil)
			if name := typeName(got); name != tt.want {
				t.Errorf("expected %s, got %s", tt.want, name)
			}
		})
	}
}

func typeName(s EmailSender) string {
	switch s.(type) {
	case *SendGridSender:
		return "*notify.SendGridSender"
	case *SESSender:
		return "*notify.SESSender"
	case *StubEmailSender:
		return "*notify.StubEmailSender"
	default:
		return "unknown"
	}
}
