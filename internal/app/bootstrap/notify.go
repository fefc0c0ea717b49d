package bootstrap

import (
	"strings"

	appconfig "github.com/wolfman30/cashbarber-autobook/internal/config"
	"github.com/wolfman30/cashbarber-autobook/internal/notify"
	"github.com/wolfman30/cashbarber-autobook/pkg/logging"
)

// BuildReporter wires the optional run report. It returns nil when no
// recipient is configured. ses may be nil unless NOTIFY_PROVIDER is "ses".
func BuildReporter(cfg *appconfig.Config, ses notify.SESAPI, logger *logging.Logger) *notify.Reporter {
	if cfg == nil || strings.TrimSpace(cfg.NotifyEmailTo) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}

	sender := notify.NewEmailSender(notify.SenderConfig{
		Provider:       cfg.NotifyProvider,
		SendGridAPIKey: cfg.SendGridAPIKey,
		From: notify.Mailbox{
			Name:    cfg.SendGridFromName,
			Address: cfg.SendGridFromEmail,
		},
	}, ses, logger)

	logger.Info("run reports enabled", "to", cfg.NotifyEmailTo, "provider", cfg.NotifyProvider, "only_on_errors", cfg.NotifyOnlyOnErrors)
	return notify.NewReporter(sender, notify.ReportConfig{
		To:           cfg.NotifyEmailTo,
		OnlyOnErrors: cfg.NotifyOnlyOnErrors,
	}, logger)
}
