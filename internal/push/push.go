package push

import "context"

// Gateway performs final delivery. One call carries one batch.
type Gateway interface {
	SendMulticast(ctx context.Context, msg *Message) ([]Response, error)
}

type Message struct {
	Tokens []string
	Title  string
	Body   string
	Data   map[string]string
}

// Response is the outcome for Message.Tokens[i] at the same index.
type Response struct {
	Token        string
	MessageID    string
	Err          error
	Unregistered bool
}

func (r Response) Success() bool {
	return r.Err == nil
}
