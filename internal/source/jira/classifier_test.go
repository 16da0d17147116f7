package jira

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eopbot/internal/format"
	"eopbot/internal/httpserver"
	"eopbot/internal/sink/sinktest"
	logx "eopbot/pkg/logx"
)

const site = "https://psychonaut.atlassian.net"

func payload(event string) string {
	return `{"webhookEvent":"` + event + `",
		"user":{"accountId":"5b10a","displayName":"Jöran <J>"},
		"issue":{"self":"https://psychonaut.atlassian.net/rest/api/2/issue/1","key":"EOP-12","fields":{
			"issuetype":{"name":"Bug"},"project":{"name":"EoP"},"priority":{"name":"ÜBER"},
			"status":{"name":"In Progress","statusCategory":{"name":"In Progress"}},"summary":"Fix & ship"}}}`
}

func newEngine() (http.Handler, *sinktest.Recorder) {
	rec := &sinktest.Recorder{}
	r := httpserver.NewEngine(logx.Nop())
	NewHandler(NewClassifier(format.HTML{}, site, rec, logx.Nop()), logx.Nop()).Routes(r)
	return r, rec
}

func submit(h http.Handler, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestIssueDeleted(t *testing.T) {
	h, rec := newEngine()
	w := submit(h, "/submit", payload("jira:issue_deleted"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Loud)
	assert.Equal(t,
		`[<i>über</i> | <i>in progress</i>] <a href="https://psychonaut.atlassian.net/people/5b10a">Jöran &lt;J&gt;</a>`+
			` deleted bug <a href="https://psychonaut.atlassian.net/browse/EOP-12">EOP-12</a> [EoP]: <b>Fix &amp; ship</b>`,
		string(msgs[0].Text))
}

func TestVerbs(t *testing.T) {
	for event, verb := range map[string]string{
		"jira:issue_created": "created",
		"jira:issue_updated": "updated",
		"jira:issue_deleted": "deleted",
	} {
		t.Run(event, func(t *testing.T) {
			h, rec := newEngine()
			submit(h, "/submit", payload(event))
			require.Len(t, rec.Texts(), 1)
			assert.Contains(t, rec.Texts()[0], "</a> "+verb+" bug ")
		})
	}
}

func TestUnrecognizedEventProducesNothing(t *testing.T) {
	h, rec := newEngine()
	for _, event := range []string{"jira:worklog_updated", "comment_created", "issue_deleted", "jira:issue_created_x", "null"} {
		w := submit(h, "/submit", payload(event))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	}
	assert.Empty(t, rec.Messages())
}

func TestParseFailures(t *testing.T) {
	h, rec := newEngine()
	for name, body := range map[string]string{
		"not json":      `{`,
		"missing event": `{"user":{"displayName":"x"},"issue":{"key":"A-1"}}`,
		"missing key":   `{"webhookEvent":"jira:issue_created","user":{"displayName":"x"},"issue":{}}`,
		"missing actor": `{"webhookEvent":"jira:issue_created","issue":{"key":"A-1"}}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := submit(h, "/submit", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"ok":false}`, w.Body.String())
		})
	}
	assert.Empty(t, rec.Messages())
}

func TestOtherRoutesAre404(t *testing.T) {
	h, _ := newEngine()
	w := submit(h, "/", payload("jira:issue_created"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":false}`, w.Body.String())

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/submit", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPlainDialect(t *testing.T) {
	rec := &sinktest.Recorder{}
	c := NewClassifier(format.Plain{}, site+"/", rec, logx.Nop())
	msg, ok := c.Format(&Event{
		WebhookEvent: "jira:issue_created",
		User:         User{AccountID: "a1", DisplayName: "Kim"},
		Issue:        Issue{Key: "EOP-1", Fields: Fields{Summary: "Hi"}},
	})
	require.True(t, ok)
	assert.Equal(t, "[ | ] Kim (https://psychonaut.atlassian.net/people/a1) created  EOP-1 (https://psychonaut.atlassian.net/browse/EOP-1) []: Hi", string(msg.Text))
}
