package mainconfig

import (
	"context"
	"testing"

	appconfig "github.com/wolfman30/cashbarber-autobook/internal/config"
)

func TestLoadAWSConfigStaticCredentials(t *testing.T) {
	cfg := &appconfig.Config{AWSRegion: "sa-east-1", AWSAccessKeyID: "test", AWSSecretAccessKey: "secret"}
	awsCfg, err := LoadAWSConfig(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if awsCfg.Region != "sa-east-1" {
		t.Fatalf("expected region sa-east-1, got %s", awsCfg.Region)
	}
	creds, err := awsCfg.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("retrieve credentials: %v", err)
	}
	if creds.AccessKeyID != "test" {
		t.Fatalf("expected static credentials, got %s", creds.AccessKeyID)
	}
}

func TestNewSESClientOnlyForSES(t *testing.T) {
	cfg := &appconfig.Config{AWSRegion: "us-east-1", NotifyProvider: "sendgrid", NotifyEmailTo: "me@example.com"}
	client, err := NewSESClient(context.Background(), cfg)
	if err != nil || client != nil {
		t.Fatalf("expected no SES client for sendgrid, got %v %v", client, err)
	}

	cfg.NotifyProvider = "ses"
	cfg.AWSAccessKeyID = "test"
	cfg.AWSSecretAccessKey = "secret"
	cfg.AWSEndpointOverride = "http://localhost:4566"
	client, err = NewSESClient(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client == nil {
		t.Fatal("expected SES client")
	}
}
