package push

import (
	"context"
	"errors"
	"fmt"

	"photo-journal-backend/internal/config"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// APNsNotifier delivers alerts to iOS devices
type APNsNotifier struct {
	client *apns2.Client
	topic  string
}

// NewAPNsNotifier creates a token-authenticated APNs client
func NewAPNsNotifier(cfg config.APNsConfig) (*APNsNotifier, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load APNs key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}

	return &APNsNotifier{client: client, topic: cfg.Topic}, nil
}

// Notify sends the same alert to every device token
func (n *APNsNotifier) Notify(ctx context.Context, deviceTokens []string, title, body string, data map[string]string) error {
	p := payload.NewPayload().AlertTitle(title).AlertBody(body).Sound("default")
	for k, v := range data {
		p = p.Custom(k, v)
	}

	var errs []error
	for _, deviceToken := range deviceTokens {
		res, err := n.client.PushWithContext(ctx, &apns2.Notification{
			DeviceToken: deviceToken,
			Topic:       n.topic,
			Payload:     p,
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("push to %s: %w", deviceToken, err))
			continue
		}
		if !res.Sent() {
			errs = append(errs, fmt.Errorf("push to %s rejected: %d %s", deviceToken, res.StatusCode, res.Reason))
			continue
		}
		log.Debug().Str("apns_id", res.ApnsID).Msg("Push delivered")
	}
	return errors.Join(errs...)
}

// NoopNotifier drops every notification; used when APNs is not configured
type NoopNotifier struct{}

// Notify implements the notifier contract without sending anything
func (NoopNotifier) Notify(ctx context.Context, deviceTokens []string, title, body string, data map[string]string) error {
	return nil
}
