package netutil

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestShouldRetry(t *testing.T) {
	dial := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	cases := map[string]struct {
		err  error
		want bool
	}{
		"nil":            {nil, false},
		"plain":          {errors.New("bad request"), false},
		"cancelled":      {fmt.Errorf("send: %w", context.Canceled), false},
		"dial":           {dial, true},
		"timeout":        {timeoutErr{}, true},
		"wrapped in url": {&url.Error{Op: "Post", URL: "https://api.telegram.org", Err: dial}, true},
		"flood":          {tele.FloodError{RetryAfter: 3}, true},
		"api error":      {tele.ErrBlockedByUser, false},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, ShouldRetry(tc.err))
		})
	}
}
