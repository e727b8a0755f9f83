package config

type ctxKey string

const (
	UidKey    ctxKey = "uid"
	ClaimsKey ctxKey = "claims"
	IpKey     ctxKey = "ip"
	UaKey     ctxKey = "ua"

	DeviceNameKey ctxKey = "device-name"
)

const (
	ErrorSpanTag = "error"
	BearerPrefix = "Bearer "

	DeviceNameHeader = "X-Device-Name"
)

const (
	// PushBatchSize is the largest multicast the push gateway accepts in one call.
	PushBatchSize = 500
	ReminderLock  = "reminders:lock"
)

const (
	PushTokensCacheKey = "push-tokens:%v"
	PushTokensPattern  = "push-tokens:*"
)
