package mediawiki

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eopbot/internal/format"
	"eopbot/internal/sink/sinktest"
	"eopbot/internal/wiki"
	logx "eopbot/pkg/logx"
)

const base = "https://psychonautwiki.org"

type lookupCall struct {
	title string
	rev   int64
}

type fakeLookup struct {
	info  wiki.RevisionInfo
	ok    bool
	calls []lookupCall
}

func (f *fakeLookup) Lookup(_ context.Context, title string, rev int64) (wiki.RevisionInfo, bool) {
	f.calls = append(f.calls, lookupCall{title, rev})
	return f.info, f.ok
}

func newClassifier(lookup wiki.Lookuper) (*Classifier, *sinktest.Recorder) {
	rec := &sinktest.Recorder{}
	c := NewClassifier(Config{Dialect: format.HTML{}, Site: wiki.NewSite(base), Lookup: lookup}, rec, logx.Nop())
	return c, rec
}

func format1(t *testing.T, c *Classifier, raw string) (string, bool) {
	t.Helper()
	ev, err := Decode([]byte(raw))
	require.NoError(t, err)
	msg, ok := c.Format(context.Background(), ev)
	if ok {
		assert.True(t, msg.Loud)
	}
	return string(msg.Text), ok
}

func TestEditMinorWithoutSummary(t *testing.T) {
	c, rec := newClassifier(nil)
	c.Handle(context.Background(), []byte(`{"type":"edit","user":"Alice","title":"LSD","comment":"",
		"revision":{"new":100,"old":99},"minor":true,"patrolled":false,"bot":false}`))

	msgs := rec.Messages()
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].Loud)
	assert.Equal(t,
		`| <b>minor</b> | <a href="https://psychonautwiki.org/wiki/User:Alice">Alice</a> edited `+
			`<a href="https://psychonautwiki.org/w/index.php?title=LSD&amp;type=revision&amp;diff=100&amp;oldid=99">LSD</a> without summary`,
		string(msgs[0].Text))
}

func TestEditAllFlagsWithSummary(t *testing.T) {
	c, _ := newClassifier(nil)
	text, ok := format1(t, c, `{"type":"edit","user":"Bot","title":"DMT","comment":"typo",
		"revision":{"new":2,"old":1},"minor":true,"patrolled":true,"bot":true}`)
	require.True(t, ok)
	assert.Contains(t, text, "| <b>minor</b> <b>patrolled</b> <b>bot</b> | ")
	assert.Contains(t, text, "with summary: typo")
}

func TestEditWithoutFlags(t *testing.T) {
	c, _ := newClassifier(nil)
	text, ok := format1(t, c, `{"type":"edit","user":"A","title":"T","comment":"x","revision":{"new":2,"old":1}}`)
	require.True(t, ok)
	assert.Equal(t, `<a href="https://psychonautwiki.org/wiki/User:A">A</a> edited `+
		`<a href="https://psychonautwiki.org/w/index.php?title=T&amp;type=revision&amp;diff=2&amp;oldid=1">T</a> with summary: x`, text)
}

func TestNewPage(t *testing.T) {
	c, _ := newClassifier(nil)
	text, ok := format1(t, c, `{"type":"new","user":"Alice","title":"Foo Bar","comment":"",
		"revision":{"new":7,"old":null},"bot":true}`)
	require.True(t, ok)
	assert.Equal(t, `[new] | <b>bot</b> | <a href="https://psychonautwiki.org/wiki/User:Alice">Alice</a> created page `+
		`<a href="https://psychonautwiki.org/w/index.php?title=Foo%2520Bar&amp;oldid=7">Foo Bar</a> without summary`, text)
}

func TestUserContentIsEscaped(t *testing.T) {
	c, _ := newClassifier(nil)
	text, ok := format1(t, c, `{"type":"edit","user":"<script>","title":"A&B","comment":"<b>hi</b>",
		"revision":{"new":2,"old":1}}`)
	require.True(t, ok)
	assert.NotContains(t, text, "<script>")
	assert.NotContains(t, text, "<b>hi</b>")
	assert.Contains(t, text, ">&lt;script&gt;</a>")
	assert.Contains(t, text, ">A&amp;B</a>")
	assert.Contains(t, text, "title=A%26B&amp;type=revision")
	assert.Contains(t, text, "with summary: &lt;b&gt;hi&lt;/b&gt;")
}

func TestApproveWithEnrichment(t *testing.T) {
	lk := &fakeLookup{info: wiki.RevisionInfo{User: "Carol", Comment: "fix <ref>", ParentID: 99}, ok: true}
	c, _ := newClassifier(lk)
	text, ok := format1(t, c, `{"type":"log","log_type":"approval","log_action":"approve","user":"Bob",
		"title":"LSD","log_params":{"rev_id":100,"old_rev_id":90}}`)
	require.True(t, ok)
	assert.Equal(t, []lookupCall{{"LSD", 100}}, lk.calls)
	assert.Equal(t,
		`[log/approval] <a href="https://psychonautwiki.org/wiki/User:Bob">Bob</a> approved `+
			`<a href="https://psychonautwiki.org/w/index.php?title=LSD&amp;type=revision&amp;diff=100&amp;oldid=99">revision 100</a>`+
			` by <a href="https://psychonautwiki.org/wiki/User:Carol">Carol</a> ("fix &lt;ref&gt;")`+
			` of <a href="https://psychonautwiki.org/wiki/LSD">LSD</a>`,
		text)
}

func TestApproveWithoutEnrichmentFallsBackToOldRev(t *testing.T) {
	lk := &fakeLookup{ok: false}
	c, _ := newClassifier(lk)
	text, ok := format1(t, c, `{"type":"log","log_type":"approval","log_action":"approve","user":"Bob",
		"title":"LSD","log_params":{"rev_id":"100","old_rev_id":"90"}}`)
	require.True(t, ok)
	assert.Equal(t,
		`[log/approval] <a href="https://psychonautwiki.org/wiki/User:Bob">Bob</a> approved `+
			`<a href="https://psychonautwiki.org/w/index.php?title=LSD&amp;type=revision&amp;diff=100&amp;oldid=90">revision 100</a>`+
			` of <a href="https://psychonautwiki.org/wiki/LSD">LSD</a>`,
		text)
	assert.NotContains(t, text, " by ")
}

func TestUnapproveKeyedOnOldRevision(t *testing.T) {
	lk := &fakeLookup{info: wiki.RevisionInfo{User: "Dan", Comment: "", ParentID: 1}, ok: true}
	c, _ := newClassifier(lk)
	text, ok := format1(t, c, `{"type":"log","log_type":"approval","log_action":"unapprove","user":"Eve",
		"title":"LSD","log_params":{"old_rev_id":90}}`)
	require.True(t, ok)
	assert.Equal(t, []lookupCall{{"LSD", 90}}, lk.calls)
	assert.Equal(t,
		`[log/approval] <a href="https://psychonautwiki.org/wiki/User:Eve">Eve</a> revoked the approval of `+
			`<a href="https://psychonautwiki.org/wiki/LSD">LSD</a> (was `+
			`<a href="https://psychonautwiki.org/w/index.php?title=LSD&amp;type=revision&amp;oldid=90">revision 90</a>`+
			` by <a href="https://psychonautwiki.org/wiki/User:Dan">Dan</a> (""))`,
		text)
}

func TestApprovalUnknownAndNullActions(t *testing.T) {
	c, _ := newClassifier(nil)

	text, ok := format1(t, c, `{"type":"log","log_type":"approval","log_action":"reapprove","title":"a+b?"}`)
	require.True(t, ok)
	assert.Equal(t, `[log/approval/not_implemented] {"type":"log","log_type":"approval","log_action":"reapprove","title":"a%2bb%3f"}`, text)

	_, ok = format1(t, c, `{"type":"log","log_type":"approval","log_action":null}`)
	assert.False(t, ok)
}

func TestPatrolAutoHandling(t *testing.T) {
	tests := []struct {
		name   string
		params string
		want   bool
	}{
		{"manual", `{"curid":5,"previd":4,"auto":0}`, true},
		{"manual string", `{"curid":5,"previd":4,"auto":"0"}`, true},
		{"manual bool", `{"curid":5,"previd":4,"auto":false}`, true},
		{"automatic", `{"curid":5,"previd":4,"auto":1}`, false},
		{"automatic bool", `{"curid":5,"previd":4,"auto":true}`, false},
		{"missing", `{"curid":5,"previd":4}`, false},
		{"empty params", `[]`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lk := &fakeLookup{}
			c, _ := newClassifier(lk)
			text, ok := format1(t, c, `{"type":"log","log_type":"patrol","user":"P","title":"LSD","log_params":`+tt.params+`}`)
			assert.Equal(t, tt.want, ok)
			if !tt.want {
				assert.Empty(t, lk.calls)
				return
			}
			assert.Equal(t, []lookupCall{{"LSD", 5}}, lk.calls)
			assert.Equal(t,
				`[log/patrol] <a href="https://psychonautwiki.org/wiki/User:P">P</a> marked `+
					`<a href="https://psychonautwiki.org/w/index.php?title=LSD&amp;type=revision&amp;diff=5&amp;oldid=4">revision 5</a>`+
					` of <a href="https://psychonautwiki.org/wiki/LSD">LSD</a> patrolled`,
				text)
		})
	}
}

func TestSimpleLogKinds(t *testing.T) {
	user := `<a href="https://psychonautwiki.org/wiki/User:U">U</a>`
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"avatar", `{"type":"log","log_type":"avatar","user":"U","comment":"uploaded an avatar"}`,
			"[log/avatar] " + user + " uploaded an avatar"},
		{"block", `{"type":"log","log_type":"block","user":"U","log_action_comment":"blocked X"}`,
			"[log/ban] " + user + " blocked X"},
		{"newusers", `{"type":"log","log_type":"newusers","user":"U","log_action_comment":"created an account"}`,
			"[log/newusers] " + user + " created an account"},
		{"profile", `{"type":"log","log_type":"profile","user":"U","log_action_comment":"edited profile"}`,
			"[log/profile] " + user + " edited profile"},
		{"rights", `{"type":"log","log_type":"rights","user":"U","log_action_comment":"changed <groups>"}`,
			"[log/rights] " + user + " changed &lt;groups&gt;"},
		{"thanks", `{"type":"log","log_type":"thanks","user":"U","log_action_comment":"U thanked V"}`,
			"[log/thanks] U thanked V"},
		{"delete", `{"type":"log","log_type":"delete","user":"U","title":"Old Page"}`,
			"[log/delete] " + user + ` deleted page: <a href="https://psychonautwiki.org/wiki/Old_Page">Old Page</a>`},
		{"upload", `{"type":"log","log_type":"upload","user":"U","title":"File:X.png"}`,
			"[log/upload] " + user + ` uploaded file: <a href="https://psychonautwiki.org/wiki/File:X.png">File:X.png</a>`},
		{"move", `{"type":"log","log_type":"move","user":"U","title":"LSD","log_params":{"target":"LSD (drug)"}}`,
			"[log/move] " + user + ` moved <a href="https://psychonautwiki.org/wiki/LSD">LSD</a> to ` +
				`<a href="https://psychonautwiki.org/wiki/LSD_%28drug%29">LSD (drug)</a>`},
		{"usermerge", `{"type":"log","log_type":"usermerge","user":"U","log_action_comment":"merged%20A%20into%20B"}`,
			"[log/usermerge] " + user + " merged A into B"},
	}
	c, _ := newClassifier(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			text, ok := format1(t, c, tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestFallbackAndNull(t *testing.T) {
	c, rec := newClassifier(nil)

	text, ok := format1(t, c, `{"type":"categorize","title":"<x>"}`)
	require.True(t, ok)
	assert.Equal(t, `[not_implemented] {"type":"categorize","title":"&lt;x&gt;"}`, text)

	text, ok = format1(t, c, `{"type":"log","log_type":"merge","title":"a&b"}`)
	require.True(t, ok)
	assert.Equal(t, `[log_not_implemented] {"type":"log","log_type":"merge","title":"a%26b"}`, text)

	for _, raw := range []string{
		`{"type":"null"}`,
		`{"type":null}`,
		`{"title":"no type"}`,
		`{"type":"log","log_type":"null"}`,
		`{"type":"log"}`,
	} {
		c.Handle(context.Background(), []byte(raw))
	}
	c.Handle(context.Background(), []byte(`not json`))
	assert.Empty(t, rec.Messages())
}

func TestMarkdownDialect(t *testing.T) {
	rec := &sinktest.Recorder{}
	c := NewClassifier(Config{Dialect: format.Markdown{}, Site: wiki.NewSite(base)}, rec, logx.Nop())
	c.Handle(context.Background(), []byte(`{"type":"log","log_type":"thanks","log_action_comment":"a_b thanked *c*"}`))
	assert.Equal(t, []string{`\[log/thanks] a\_b thanked \*c\*`}, rec.Texts())
}

func TestMistypedRecordsAreDumped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"numeric type", `{"type":42,"title":"X"}`,
			`[not_implemented] {"type":42,"title":"X"}`},
		{"unknown type with odd flag", `{"type":"categorize","title":"X","bot":"1"}`,
			`[not_implemented] {"type":"categorize","title":"X","bot":"1"}`},
		{"edit with odd revision", `{"type":"edit","title":"X","revision":{"new":"a"}}`,
			`[not_implemented] {"type":"edit","title":"X","revision":{"new":"a"}}`},
		{"log with odd flag", `{"type":"log","log_type":"merge","title":"a&b","minor":"yes"}`,
			`[log_not_implemented] {"type":"log","log_type":"merge","title":"a%26b","minor":"yes"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newClassifier(nil)
			c.Handle(context.Background(), []byte(tt.raw))
			msgs := rec.Messages()
			require.Len(t, msgs, 1)
			assert.True(t, msgs[0].Loud)
			assert.Equal(t, tt.want, string(msgs[0].Text))
		})
	}
}

func TestMistypedNullRecordsAreDropped(t *testing.T) {
	c, rec := newClassifier(nil)
	for _, raw := range []string{
		`{"type":null,"bot":"1"}`,
		`{"title":"X","minor":"1"}`,
		`{"type":"log","log_type":null,"bot":"1"}`,
		`[1,2]`,
		`42`,
		`{"type":"edit",`,
	} {
		c.Handle(context.Background(), []byte(raw))
	}
	assert.Empty(t, rec.Messages())
}

func TestMissingRevisionIDsAreDumped(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"approve without rev_id",
			`{"type":"log","log_type":"approval","log_action":"approve","title":"T","log_params":{"old_rev_id":3}}`,
			`[log/approval/not_implemented] {"type":"log","log_type":"approval","log_action":"approve","title":"T","log_params":{"old_rev_id":3}}`},
		{"unapprove without old_rev_id",
			`{"type":"log","log_type":"approval","log_action":"unapprove","title":"T","log_params":[]}`,
			`[log/approval/not_implemented] {"type":"log","log_type":"approval","log_action":"unapprove","title":"T","log_params":[]}`},
		{"manual patrol without curid",
			`{"type":"log","log_type":"patrol","title":"T","log_params":{"auto":0}}`,
			`[log_not_implemented] {"type":"log","log_type":"patrol","title":"T","log_params":{"auto":0}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lk := &fakeLookup{}
			c, _ := newClassifier(lk)
			text, ok := format1(t, c, tt.raw)
			require.True(t, ok)
			assert.Equal(t, tt.want, text)
			assert.Empty(t, lk.calls)
		})
	}
}
