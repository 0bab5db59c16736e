package services

import (
	"context"
	"net/url"
)

// Gateway posts a legacy form to the gateway and returns the raw reply.
type Gateway interface {
	Post(ctx context.Context, endpoint string, form url.Values) (status int, body []byte, err error)
}
