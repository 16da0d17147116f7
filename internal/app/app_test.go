package app

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eopbot/internal/config"
	kit "eopbot/internal/transport"
)

type sent struct {
	to   kit.ChatTarget
	text string
	opt  kit.SendOptions
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []sent
}

func (s *recordingSender) SendText(_ context.Context, to kit.ChatTarget, text string, opt *kit.SendOptions) (kit.MessageRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, sent{to: to, text: text, opt: *opt})
	return kit.MessageRef{ChatID: to.ChatID, MessageID: len(s.msgs)}, nil
}

func (s *recordingSender) snapshot() []sent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sent(nil), s.msgs...)
}

type notifications struct {
	mu     sync.Mutex
	states []string
}

func (n *notifications) notify(state string) (bool, error) {
	n.mu.Lock()
	n.states = append(n.states, state)
	n.mu.Unlock()
	return true, nil
}

func (n *notifications) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.states...)
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "eopbot.json")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func relayConfig(verifyURL, jiraListen string, failFast bool) string {
	return fmt.Sprintf(`{
		"telegram": {"token": "t", "channel_id": -1001050593583},
		"logging": {"level": "error"},
		"supervisor": {"fail_fast": %t},
		"mediawiki": {"listen": "127.0.0.1:0", "api_url": "http://127.0.0.1:1/w/api.php", "lookup_timeout": "200ms"},
		"github": {"listen": "127.0.0.1:0"},
		"jira": {"listen": %q},
		"paypal": {"listen": "127.0.0.1:0", "verify_url": %q}
	}`, failFast, jiraListen, verifyURL)
}

func addrOf(t *testing.T, l Listener) string {
	t.Helper()
	a, ok := l.(interface{ Addr() net.Addr })
	require.True(t, ok)
	require.NotNil(t, a.Addr())
	return a.Addr().String()
}

func listenerByName(t *testing.T, a *App, name string) Listener {
	t.Helper()
	for _, l := range a.Listeners() {
		if l.Name() == name {
			return l
		}
	}
	t.Fatalf("no listener %q", name)
	return nil
}

func TestRelayEndToEnd(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	verify := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("VERIFIED"))
	}))
	t.Cleanup(verify.Close)

	rec := &recordingSender{}
	n := &notifications{}
	a, err := NewApp(writeConfig(t, relayConfig(verify.URL, "127.0.0.1:0", true)),
		WithSender(rec), WithNotify(n.notify))
	require.NoError(t, err)
	require.Len(t, a.Listeners(), 4)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))
	assert.Equal(t, []string{daemon.SdNotifyReady}, n.all())

	// Jira
	jiraURL := "http://" + addrOf(t, listenerByName(t, a, "jira")) + "/submit"
	resp, err := http.Post(jiraURL, "application/json", strings.NewReader(`{"webhookEvent":"jira:issue_created",
		"user":{"accountId":"u1","displayName":"Kim"},"issue":{"key":"EOP-1","fields":{"summary":"Hi"}}}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// PayPal
	ppURL := "http://" + addrOf(t, listenerByName(t, a, "paypal")) + "/"
	resp, err = http.Post(ppURL, "application/x-www-form-urlencoded",
		strings.NewReader("mc_gross=10.00&mc_fee=0.50&mc_currency=USD&payer_status=verified&first_name=Ada"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// GitHub
	ghURL := "http://" + addrOf(t, listenerByName(t, a, "github")) + "/hook"
	req, err := http.NewRequest(http.MethodPost, ghURL, strings.NewReader(`{"hook_id":42,"zen":"Keep it simple."}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-GitHub-Event", "ping")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// MediaWiki
	conn, err := net.Dial("udp", addrOf(t, listenerByName(t, a, "mediawiki")))
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Write([]byte(`{"type":"edit","title":"LSD","user":"Kim","comment":"",
		"minor":false,"patrolled":false,"bot":false,"revision":{"new":2,"old":1}}`))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 4 }, 5*time.Second, 20*time.Millisecond)

	byLabel := map[string]sent{}
	for _, m := range rec.snapshot() {
		assert.Equal(t, int64(-1001050593583), m.to.ChatID)
		assert.True(t, m.opt.DisablePreview)
		assert.Equal(t, "HTML", m.opt.ParseMode)
		for _, label := range []string{"MediaWiki", "GitHub", "Jira", "PayPal"} {
			if strings.HasPrefix(m.text, "⥂ <b>"+label+"</b> ⟹ ") {
				byLabel[label] = m
			}
		}
	}
	require.Len(t, byLabel, 4)
	assert.Contains(t, byLabel["Jira"].text, "created")
	assert.Contains(t, byLabel["PayPal"].text, "Received <b>9.50 USD</b>")
	assert.Contains(t, byLabel["GitHub"].text, "webhook 42 is alive")
	assert.True(t, byLabel["GitHub"].opt.DisableNotification)
	assert.Contains(t, byLabel["MediaWiki"].text, "edited")
	assert.False(t, byLabel["MediaWiki"].opt.DisableNotification)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	require.NoError(t, a.Stop(stopCtx, StopSignal))
	assert.Equal(t, []string{daemon.SdNotifyReady, daemon.SdNotifyStopping}, n.all())
	// Four sources plus the config reload and watch workers.
	assert.Equal(t, uint64(6), a.sup.Counters().Started)
	assert.Equal(t, int64(0), a.sup.Counters().Active)

	select {
	case <-a.Done():
	default:
		t.Fatal("app not done after stop")
	}
}

func TestBindFailure(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { busy.Close() })

	t.Run("fail fast aborts", func(t *testing.T) {
		n := &notifications{}
		a, err := NewApp(writeConfig(t, relayConfig("http://127.0.0.1:1", busy.Addr().String(), true)),
			WithSender(&recordingSender{}), WithNotify(n.notify))
		require.NoError(t, err)

		err = a.Start(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jira")
		assert.Empty(t, n.all())
		<-a.Done()

		// Sources bound before the failure were released.
		for _, name := range []string{"mediawiki", "github"} {
			l := listenerByName(t, a, name)
			assert.Error(t, l.Close(), name)
		}
	})

	t.Run("otherwise the source is skipped", func(t *testing.T) {
		a, err := NewApp(writeConfig(t, relayConfig("http://127.0.0.1:1", busy.Addr().String(), false)),
			WithSender(&recordingSender{}), WithNotify((&notifications{}).notify))
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		require.NoError(t, a.Start(ctx))
		assert.NoError(t, a.Stop(context.Background(), StopSignal))
	})
}

func TestNoSourceBinds(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { busy.Close() })

	body := fmt.Sprintf(`{
		"telegram": {"token": "t", "channel_id": 1},
		"mediawiki": {"enabled": false},
		"github": {"enabled": false},
		"paypal": {"enabled": false},
		"jira": {"listen": %q}
	}`, busy.Addr().String())
	a, err := NewApp(writeConfig(t, body), WithSender(&recordingSender{}), WithNotify((&notifications{}).notify))
	require.NoError(t, err)
	require.Len(t, a.Listeners(), 1)
	assert.ErrorIs(t, a.Start(context.Background()), ErrNoListeners)
}

func TestNewAppRejectsInvalidConfig(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	_, err := NewApp(writeConfig(t, `{"telegram":{"channel_id":1}}`), WithSender(&recordingSender{}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "telegram.token")
}

func TestShortenerIsWiredIntoSinks(t *testing.T) {
	t.Setenv(config.TokenEnv, "")
	short := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("https://is.gd/x"))
	}))
	t.Cleanup(short.Close)

	rec := &recordingSender{}
	body := fmt.Sprintf(`{
		"telegram": {"token": "t", "channel_id": 1},
		"shortener": {"enabled": true, "endpoint": %q, "min_length": 10},
		"mediawiki": {"enabled": false},
		"github": {"enabled": false},
		"paypal": {"enabled": false},
		"jira": {"listen": "127.0.0.1:0"}
	}`, short.URL+"/create.php?format=simple")
	a, err := NewApp(writeConfig(t, body), WithSender(rec), WithNotify((&notifications{}).notify))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, a.Start(ctx))
	defer a.Stop(context.Background(), StopSignal)

	url := "http://" + addrOf(t, listenerByName(t, a, "jira")) + "/submit"
	resp, err := http.Post(url, "application/json", strings.NewReader(`{"webhookEvent":"jira:issue_updated",
		"user":{"accountId":"u1","displayName":"Kim"},"issue":{"key":"EOP-1","fields":{"summary":"Hi"}}}`))
	require.NoError(t, err)
	resp.Body.Close()

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 3*time.Second, 20*time.Millisecond)
	text := rec.snapshot()[0].text
	assert.Contains(t, text, `href="https://is.gd/x"`)
	assert.NotContains(t, text, "psychonaut.atlassian.net")
}
