package ctrl

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JMURv/fieldlog/internal/config"
	"github.com/JMURv/fieldlog/internal/dto"
	"github.com/JMURv/fieldlog/internal/push"
	metrics "github.com/JMURv/fieldlog/internal/observability/metrics/prometheus"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"go.uber.org/zap"
)

type notificationCtrl interface {
	Send(ctx context.Context, tokens []string, title, body string, data map[string]any) dto.DeliveryResult
	SendToUser(ctx context.Context, uid uuid.UUID, title, body string, data map[string]any) (dto.DeliveryResult, error)
	SendToUsers(ctx context.Context, uids []uuid.UUID, title, body string, data map[string]any) (dto.DeliveryResult, error)
	SendTest(ctx context.Context, caller uuid.UUID, req *dto.TestNotificationRequest) (dto.DeliveryResult, error)
}

// Send fans one notification out to tokens in gateway-sized batches. Blank and repeated tokens are dropped.
// Tokens the gateway reports as unregistered are deactivated; any other failure leaves them alone.
func (c *Controller) Send(
	ctx context.Context,
	tokens []string,
	title, body string,
	data map[string]any,
) dto.DeliveryResult {
	const op = "notifications.Send.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	tokens = cleanTokens(tokens)
	res := dto.DeliveryResult{Outcomes: make([]dto.TokenOutcome, 0, len(tokens))}
	if len(tokens) == 0 {
		res.NoDevice = true
		res.Error = ErrNoActiveDevice.Error()
		return res
	}

	if c.push == nil {
		zap.L().Warn(ErrPushNotConfigured.Error(), zap.String("op", op), zap.Int("tokens", len(tokens)))
		failAll(&res, tokens, ErrPushNotConfigured)
		metrics.ObservePush(0, len(tokens), 0)
		return res
	}

	payload := normalizeData(data, c.now())
	invalid := make([]string, 0)
	for start := 0; start < len(tokens); start += config.PushBatchSize {
		batch := tokens[start:min(start+config.PushBatchSize, len(tokens))]

		responses, err := c.push.SendMulticast(
			ctx, &push.Message{
				Tokens: batch,
				Title:  title,
				Body:   body,
				Data:   payload,
			},
		)
		if err != nil {
			span.SetTag(config.ErrorSpanTag, true)
			zap.L().Error(
				"push gateway request failed",
				zap.String("op", op),
				zap.Int("batch", len(batch)),
				zap.Error(err),
			)
			failAll(&res, batch, err)
			continue
		}

		for _, r := range responses {
			out := dto.TokenOutcome{Token: r.Token, Success: r.Success(), MessageID: r.MessageID}
			if r.Success() {
				res.SuccessCount++
			} else {
				res.FailureCount++
				out.Error = r.Err.Error()
				out.Unregistered = r.Unregistered
				if r.Unregistered {
					invalid = append(invalid, r.Token)
				}
			}
			res.Outcomes = append(res.Outcomes, out)
		}
	}

	res.Success = res.SuccessCount > 0
	metrics.ObservePush(res.SuccessCount, res.FailureCount, len(invalid))
	c.DeactivateTokens(ctx, invalid)

	zap.L().Debug(
		"notification dispatched",
		zap.String("op", op),
		zap.Int("success", res.SuccessCount),
		zap.Int("failure", res.FailureCount),
		zap.Int("invalid", len(invalid)),
	)
	return res
}

// SendToUser returns an error only when the owner's tokens cannot be read.
func (c *Controller) SendToUser(
	ctx context.Context,
	uid uuid.UUID,
	title, body string,
	data map[string]any,
) (dto.DeliveryResult, error) {
	const op = "notifications.SendToUser.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	tokens, err := c.activeTokens(ctx, uid)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return dto.DeliveryResult{Error: err.Error()}, err
	}

	if len(tokens) == 0 {
		zap.L().Debug("user has no registered device", zap.String("op", op), zap.String("uid", uid.String()))
		return dto.DeliveryResult{NoDevice: true, Error: ErrNoActiveDevice.Error()}, nil
	}

	return c.Send(ctx, tokens, title, body, data), nil
}

func (c *Controller) SendToUsers(
	ctx context.Context,
	uids []uuid.UUID,
	title, body string,
	data map[string]any,
) (dto.DeliveryResult, error) {
	const op = "notifications.SendToUsers.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	tokens, err := c.repo.ListActiveTokensFor(ctx, uids)
	if err != nil {
		span.SetTag(config.ErrorSpanTag, true)
		return dto.DeliveryResult{Error: err.Error()}, err
	}

	if len(tokens) == 0 {
		return dto.DeliveryResult{NoDevice: true, Error: ErrNoActiveDevice.Error()}, nil
	}

	return c.Send(ctx, tokens, title, body, data), nil
}

func (c *Controller) SendTest(
	ctx context.Context,
	caller uuid.UUID,
	req *dto.TestNotificationRequest,
) (dto.DeliveryResult, error) {
	const op = "notifications.SendTest.ctrl"
	span, ctx := opentracing.StartSpanFromContext(ctx, op)
	defer span.Finish()

	if req.UserID != caller {
		return dto.DeliveryResult{}, ErrForbidden
	}

	data := make(map[string]any, len(req.Data)+1)
	for k, v := range req.Data {
		data[k] = v
	}
	data["type"] = "test"

	res, err := c.SendToUser(ctx, req.UserID, req.Title, req.Body, data)
	if err != nil {
		return res, err
	}

	if res.NoDevice {
		return res, ErrNoActiveDevice
	}
	return res, nil
}

func cleanTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	res := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		res = append(res, t)
	}
	return res
}

func failAll(res *dto.DeliveryResult, tokens []string, err error) {
	res.FailureCount += len(tokens)
	res.Error = err.Error()
	for _, t := range tokens {
		res.Outcomes = append(res.Outcomes, dto.TokenOutcome{Token: t, Error: err.Error()})
	}
}

// normalizeData flattens every value to a string and stamps the send time unless the caller set one.
func normalizeData(data map[string]any, now time.Time) map[string]string {
	res := make(map[string]string, len(data)+1)
	for k, v := range data {
		res[k] = stringify(v)
	}

	if _, ok := res["timestamp"]; !ok {
		res["timestamp"] = now.UTC().Format(time.RFC3339)
	}
	return res
}

func stringify(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case time.Time:
		return val.UTC().Format(time.RFC3339)
	case fmt.Stringer:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		raw, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(raw)
	}
}
