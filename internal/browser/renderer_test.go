package browser

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	r, err := New("", Options{})
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = New("none", Options{})
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = New("Rod", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Rod{}, r)

	r, err = New("playwright", Options{})
	require.NoError(t, err)
	assert.IsType(t, &Playwright{}, r)

	_, err = New("selenium", Options{})
	assert.Error(t, err)
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{}.withDefaults()
	assert.Equal(t, 30*time.Second, o.RenderTimeout)
	assert.Equal(t, 5*time.Second, o.SettleTimeout)

	o = Options{RenderTimeout: time.Second}.withDefaults()
	assert.Equal(t, time.Second, o.RenderTimeout)
}

func TestCloseWithoutRender(t *testing.T) {
	assert.NoError(t, NewRod(Options{}).Close())
	assert.NoError(t, NewPlaywright(Options{}).Close())
}

func TestRenderErrorUnwraps(t *testing.T) {
	cause := errors.New("net::ERR_NAME_NOT_RESOLVED")
	err := error(&RenderError{URL: "https://example.nl", Err: cause})

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "https://example.nl")
}
