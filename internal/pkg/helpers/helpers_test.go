package helpers

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("later", time.Minute))
}

func TestNullStringRoundTrip(t *testing.T) {
	assert.False(t, GetNullString(nil).Valid)
	assert.Nil(t, StringPtr(sql.NullString{}))

	summary := "short"
	ns := GetNullString(&summary)
	require.True(t, ns.Valid)

	back := StringPtr(ns)
	require.NotNil(t, back)
	assert.Equal(t, "short", *back)
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, "%hello%", LikePattern("  HeLLo "))
	assert.Equal(t, `%50\% off\_now%`, LikePattern("50% off_now"))
}
