package fcm

import (
	"context"
	"errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/push"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

var ErrResponseMismatch = errors.New("gateway returned an unexpected number of responses")

type multicastSender interface {
	SendEachForMulticast(ctx context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type Client struct {
	cli multicastSender
}

// New returns nil when no credentials are configured so callers can treat push as disabled.
func New(ctx context.Context, conf config.Config) (*Client, error) {
	if conf.Push.CredentialsFile == "" {
		zap.L().Warn("push credentials are not configured, notifications are disabled")
		return nil, nil
	}

	var fbConf *firebase.Config
	if conf.Push.ProjectID != "" {
		fbConf = &firebase.Config{ProjectID: conf.Push.ProjectID}
	}

	app, err := firebase.NewApp(ctx, fbConf, option.WithCredentialsFile(conf.Push.CredentialsFile))
	if err != nil {
		return nil, err
	}

	cli, err := app.Messaging(ctx)
	if err != nil {
		return nil, err
	}

	return &Client{cli: cli}, nil
}

func (c *Client) SendMulticast(ctx context.Context, msg *push.Message) ([]push.Response, error) {
	const op = "push.SendMulticast.fcm"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	br, err := c.cli.SendEachForMulticast(
		ctx, &messaging.MulticastMessage{
			Tokens: msg.Tokens,
			Data:   msg.Data,
			Notification: &messaging.Notification{
				Title: msg.Title,
				Body:  msg.Body,
			},
			Android: &messaging.AndroidConfig{
				Priority: "high",
			},
			APNS: &messaging.APNSConfig{
				Payload: &messaging.APNSPayload{
					Aps: &messaging.Aps{Sound: "default"},
				},
			},
		},
	)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error("multicast request failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}

	if len(br.Responses) != len(msg.Tokens) {
		span.SetTag(config.ErrorSpanTag, true)
		zap.L().Error(
			ErrResponseMismatch.Error(),
			zap.String("op", op),
			zap.Int("tokens", len(msg.Tokens)),
			zap.Int("responses", len(br.Responses)),
		)
		return nil, ErrResponseMismatch
	}

	res := make([]push.Response, len(br.Responses))
	for i, r := range br.Responses {
		res[i] = push.Response{Token: msg.Tokens[i]}
		if r.Success {
			res[i].MessageID = r.MessageID
			continue
		}

		res[i].Err = r.Error
		if res[i].Err == nil {
			res[i].Err = errors.New("unknown delivery failure")
		}
		res[i].Unregistered = messaging.IsUnregistered(r.Error)
	}

	return res, nil
}
