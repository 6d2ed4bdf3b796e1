package mqtt

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatchTopic(t *testing.T) {
	testCases := []struct {
		topic, pattern string
		match          bool
	}{
		{"t1/report", "+/report", true},
		{"t1/report", "t1/report", true},
		{"t1/report", "#", true},
		{"t1/report/extra", "+/report", false},
		{"t1/meta", "+/report", false},
		{"t1", "+/report", false},
		{"a/b/c", "a/#", true},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.match, MatchTopic(tc.topic, tc.pattern), "%s ~ %s", tc.topic, tc.pattern)
	}
}

func TestClientOptionsFromURL(t *testing.T) {
	opts, prefix, err := ClientOptionsFromURL("mqtt://user:pw@broker:1883/lab/sut/?client-id=bench")
	require.NoError(t, err)
	require.Equal(t, "lab/sut/", prefix)
	require.Equal(t, "bench", opts.ClientID)
	require.Equal(t, "user", opts.Username)
	require.Len(t, opts.Servers, 1)
	require.Equal(t, "tcp://broker:1883", opts.Servers[0].String())
}

func TestReportTopic(t *testing.T) {
	require.Equal(t, "abc/report", ReportTopic("abc"))
	id, ok := TesterFromTopic("abc/report")
	require.True(t, ok)
	require.Equal(t, "abc", id)
	_, ok = TesterFromTopic("abc/meta")
	require.False(t, ok)
	_, ok = TesterFromTopic("a/b/report")
	require.False(t, ok)
}
