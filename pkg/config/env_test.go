package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvString(t *testing.T) {
	assert.Equal(t, "fallback", GetEnvString("NA_TEST_STRING", "fallback"))
	t.Setenv("NA_TEST_STRING", "set")
	assert.Equal(t, "set", GetEnvString("NA_TEST_STRING", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", 7},
		{"42", 42},
		{"-3", -3},
		{"12abc", 7},
		{"many", 7},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Setenv("NA_TEST_INT", tt.raw)
			assert.Equal(t, tt.want, GetEnvInt("NA_TEST_INT", 7))
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("NA_TEST_BOOL", "false")
	assert.False(t, GetEnvBool("NA_TEST_BOOL", true))
	t.Setenv("NA_TEST_BOOL", "yes")
	assert.True(t, GetEnvBool("NA_TEST_BOOL", true))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("NA_TEST_DURATION", "1m30s")
	assert.Equal(t, 90*time.Second, GetEnvDuration("NA_TEST_DURATION", time.Second))
	t.Setenv("NA_TEST_DURATION", "soon")
	assert.Equal(t, time.Second, GetEnvDuration("NA_TEST_DURATION", time.Second))
}

func TestGetEnvStringList(t *testing.T) {
	def := []string{"default"}

	t.Setenv("NA_TEST_LIST", " a , ,b,")
	assert.Equal(t, []string{"a", "b"}, GetEnvStringList("NA_TEST_LIST", def))

	t.Setenv("NA_TEST_LIST", " , ")
	assert.Equal(t, def, GetEnvStringList("NA_TEST_LIST", def))
}
