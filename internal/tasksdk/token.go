package tasksdk

import (
	"context"
	"strings"
	"time"

	"github.com/imroc/req/v3"
)

type tokenRequest struct {
	Account string `json:"account"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// RequestToken asks a development task service for a session token.
func RequestToken(ctx context.Context, baseURL, account string) (string, error) {
	const op = "request token"

	var out tokenResponse
	resp, err := req.C().
		SetTimeout(DefaultTimeout).
		SetUserAgent(UserAgent).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal).
		SetCommonRetryCount(DefaultRetryCount).
		SetCommonRetryFixedInterval(time.Second).
		R().
		SetContext(ctx).
		SetBody(&tokenRequest{Account: account}).
		SetSuccessResult(&out).
		Post(strings.TrimRight(baseURL, "/") + "/auth/token")
	if err := classify(resp, err, op); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &ActionError{Op: op, Err: ErrBadResponse}
	}
	return out.Token, nil
}
