package app

import (
	"fmt"
	"log/slog"

	"github.com/puntourbano/eventdesk/internal/attachments"
	"github.com/puntourbano/eventdesk/internal/notify"
)

// NewSender builds the messaging sender selected by MESSAGING_DRIVER.
func NewSender(cfg *Config, logger *slog.Logger) (notify.Sender, error) {
	switch cfg.MessagingDriver {
	case MessagingTwilio:
		return notify.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppNumber)
	case MessagingLog:
		return &notify.LogSender{Logger: logger}, nil
	case MessagingLink, "":
		return notify.NewLinkSender(), nil
	}
	return nil, fmt.Errorf("unknown messaging driver %q", cfg.MessagingDriver)
}

// NewStore builds the attachment store selected by STORAGE_DRIVER.
func NewStore(cfg *Config) (attachments.Store, error) {
	switch cfg.StorageDriver {
	case StorageHTTP:
		return attachments.NewHTTPStore(cfg.StorageURL, cfg.StorageBucket, cfg.StorageKey), nil
	case StorageDisk:
		return attachments.NewDiskStore(cfg.StorageDir, cfg.StoragePublicURL), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
