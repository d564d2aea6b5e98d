package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumber(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0", Number(0))
	assert.Equal(t, "999", Number(999))
	assert.Equal(t, "1,000", Number(1000))
	assert.Equal(t, "1,234,567", Number(1234567))
}

func TestBytes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "512B", Bytes(512))
	assert.Equal(t, "2.0KB", Bytes(2048))
	assert.Equal(t, "5.0MB", Bytes(5*1024*1024))
	assert.Equal(t, "1.5GB", Bytes(3*1024*1024*1024/2))
}

func TestDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0s", Duration(500*time.Millisecond))
	assert.Equal(t, "5.2s", Duration(5200*time.Millisecond))
	assert.Equal(t, "3m5.0s", Duration(3*time.Minute+5*time.Second))
	assert.Equal(t, "2h15m", Duration(2*time.Hour+15*time.Minute))
}

func TestRate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "123.45", Rate(123.45))
	assert.Equal(t, "12.34K", Rate(12340))
	assert.Equal(t, "12.34M", Rate(12340000))
}
