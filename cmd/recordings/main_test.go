package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"meetup-library/pkg/checkin"
	"meetup-library/pkg/domain"
	"meetup-library/pkg/library"
)

// runCLI executes the root command in an empty working directory so no config file is picked up.
func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("MEETUP_CONFIG", "")

	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRankCommands_JSON(t *testing.T) {
	out, err := runCLI(t, "", "trending", "--json", "-n", "3")
	require.NoError(t, err)
	var trending []domain.TrendingRecording
	require.NoError(t, json.Unmarshal([]byte(out), &trending))
	assert.Len(t, trending, 3)

	out, err = runCLI(t, "", "hot", "--json", "--limit", "2")
	require.NoError(t, err)
	var hot []domain.HotRecording
	require.NoError(t, json.Unmarshal([]byte(out), &hot))
	assert.Len(t, hot, 2)
}

func TestRankCommands_Table(t *testing.T) {
	out, err := runCLI(t, "", "picks", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "BOOSTS")
	assert.Contains(t, out, "TITLE")
}

func TestRankCommands_RejectsNonPositiveLimit(t *testing.T) {
	_, err := runCLI(t, "", "gems", "-n", "0")
	assert.EqualError(t, err, "--limit must be positive")
}

func TestSearchCommand(t *testing.T) {
	out, err := runCLI(t, "", "search", "--json", "--location", "zlin", "--tag", "GO")
	require.NoError(t, err)

	var res library.Result
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	require.Len(t, res.Recordings, 1)
	assert.Equal(t, "gm_e85", res.Recordings[0].ShortID)
	assert.Equal(t, library.Filter{Location: domain.LocationZlin, Tag: "go"}, res.Filter)

	_, err = runCLI(t, "", "search", "--location", "brno")
	assert.Error(t, err)
}

func TestRelatedCommand(t *testing.T) {
	out, err := runCLI(t, "", "related", "qksyhi", "--json", "-n", "2")
	require.NoError(t, err)
	var recs []domain.Recording
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.Len(t, recs, 2)
	for _, r := range recs {
		assert.NotEqual(t, "qksyhi", r.ShortID)
	}

	_, err = runCLI(t, "", "related", "missing")
	assert.ErrorContains(t, err, "recording not found")
}

func TestSitemapCommand(t *testing.T) {
	out, err := runCLI(t, "", "sitemap", "--base-url", "https://meetup.example")
	require.NoError(t, err)
	assert.Contains(t, out, "<urlset")
	assert.Contains(t, out, "https://meetup.example/recordings/qksyhi/scaling-postgres-without-tears")
	assert.Equal(t, 16, strings.Count(out, "<url>"))
}

func TestImportFeedCommand_NeedsDataDir(t *testing.T) {
	_, err := runCLI(t, "", "import-feed")
	assert.EqualError(t, err, "data.dir is required to import feeds")
}

func TestCheckInCommand(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc(checkin.VerifyPath, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["token"] == "unknown-token" {
			_, _ = w.Write([]byte(`{"valid":false,"error":"unknown token"}`))
			return
		}
		_, _ = w.Write([]byte(`{"valid":true,"publicId":"u-7","name":"Ada"}`))
	})
	mux.HandleFunc(checkin.CheckInPath, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	out, err := runCLI(t, "token-0001\n\nunknown-token\n", "checkin", "--api", srv.URL, "--event", "ev-1")
	assert.EqualError(t, err, "1 of 2 scans failed")
	assert.Contains(t, out, "OK   checked_in: Ada")
	assert.Contains(t, out, "FAIL invalid_token")

	_, err = runCLI(t, "", "checkin", "token-0001")
	assert.ErrorContains(t, err, "needs an API URL")
}
