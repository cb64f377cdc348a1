package ez_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"campus-taskhub/internal/service"
	"campus-taskhub/internal/transport/http/ez"
	resp "campus-taskhub/internal/transport/http/response"
)

func TestFromErrMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{service.ErrNotFound, resp.CodeNotFound},
		{service.ErrUnauthorized, resp.CodeForbidden},
		{service.ErrLevelTooLow, resp.CodeForbidden},
		{service.ErrRateLimited, resp.CodeRateLimited},
		{service.ErrWrongState, resp.CodeWrongState},
		{service.ErrNotOpen, resp.CodeWrongState},
		{service.ErrExpired, resp.CodeWrongState},
		{service.ErrConflict, resp.CodeWrongState},
		{service.ErrAlreadyRated, resp.CodeWrongState},
		{service.ErrAlreadyTerminal, resp.CodeWrongState},
		{service.ErrValidation, resp.CodeBadRequest},
		{service.ErrSelfAccept, resp.CodeBadRequest},
		{service.ErrInsufficientPoints, resp.CodeBadRequest},
		{service.ErrInvalidReceiver, resp.CodeBadRequest},
	}
	for _, c := range cases {
		ae := ez.FromErr(c.err)
		assert.Equal(t, c.code, ae.Code, c.err.Error())
		assert.Equal(t, c.err.Error(), ae.Msg)
	}

	// 包装过的哨兵同样能认出来
	wrapped := fmt.Errorf("accept task: %w", service.ErrNotOpen)
	assert.Equal(t, resp.CodeWrongState, ez.FromErr(wrapped).Code)
}

func TestFromErrUnknownIsOpaque(t *testing.T) {
	ae := ez.FromErr(errors.New("pq: connection reset"))
	assert.Equal(t, resp.CodeServerError, ae.Code)
	// 内部细节不出网
	assert.Equal(t, "internal error", ae.Msg)
}
