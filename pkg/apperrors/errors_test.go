package apperrors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOfWalksWrappedChain(t *testing.T) {
	base := New(KindUpstream, "yt-dlp failed")
	wrapped := fmt.Errorf("failed to download: %w", base)

	assert.Equal(t, KindUpstream, KindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindUpstream))
	assert.Equal(t, "failed to download: yt-dlp failed", wrapped.Error())
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(KindUpstream, cause, "telegram unavailable")

	assert.Equal(t, "telegram unavailable: connection refused", err.Error())
	assert.Equal(t, cause, errors.Cause(err))
	assert.Nil(t, Wrap(KindUpstream, nil, "ignored"))
}

func TestInternalCarriesStack(t *testing.T) {
	err := Internal(errors.New("nil pointer"))
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Contains(t, fmt.Sprintf("%+v", err.(*Error).Err), "TestInternalCarriesStack")
}

func TestHTTPStatus(t *testing.T) {
	cases := map[Kind]int{
		KindValidation: http.StatusBadRequest,
		KindNotFound:   http.StatusNotFound,
		KindConflict:   http.StatusConflict,
		KindResource:   http.StatusServiceUnavailable,
		KindUpstream:   http.StatusBadGateway,
		KindInternal:   http.StatusInternalServerError,
	}
	for kind, status := range cases {
		assert.Equal(t, status, HTTPStatus(kind), kind)
	}
}
