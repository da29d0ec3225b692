package manager_test

import (
	"bytes"
	"encoding/base64"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uniyakcom/gist/config"
	"github.com/uniyakcom/gist/core"
	"github.com/uniyakcom/gist/engine"
	"github.com/uniyakcom/gist/host"
	"github.com/uniyakcom/gist/manager"
	"github.com/uniyakcom/gist/message"
	"github.com/uniyakcom/gist/sched"
)

// ---- fakes ----

type fakeStore struct {
	mu           sync.Mutex
	actions      []core.Action
	listeners    map[uint64]core.Listener
	next         uint64
	unsubscribed []uint64
}

func newFakeStore() *fakeStore {
	return &fakeStore{listeners: make(map[uint64]core.Listener)}
}

func (s *fakeStore) Dispatch(a core.Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actions = append(s.actions, a)
}

func (s *fakeStore) State() core.State { return core.State{} }

func (s *fakeStore) Subscribe(keyPath string, fn core.Listener) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.next++
	s.listeners[s.next] = fn
	return s.next
}

func (s *fakeStore) Unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listeners[id]; ok {
		delete(s.listeners, id)
		s.unsubscribed = append(s.unsubscribed, id)
	}
}

func (s *fakeStore) emit(ms core.MessageState) {
	s.mu.Lock()
	fns := make([]core.Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(core.State{CurrentMessageState: ms})
	}
}

func (s *fakeStore) recorded() []core.Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Action(nil), s.actions...)
}

type fakeEngine struct {
	mu      sync.Mutex
	cleaned int
}

func (e *fakeEngine) CleanEngineWeb() {
	e.mu.Lock()
	e.cleaned++
	e.mu.Unlock()
}

func (e *fakeEngine) cleanCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cleaned
}

type fakePlatform struct {
	foreground bool
	handles    bool
	activities []host.UserActivity
	opened     []*url.URL
}

func (p *fakePlatform) IsForeground() bool { return p.foreground }

func (p *fakePlatform) ContinueUserActivity(a host.UserActivity) bool {
	p.activities = append(p.activities, a)
	return p.handles
}

func (p *fakePlatform) OpenURL(u *url.URL, done func(bool)) {
	p.opened = append(p.opened, u)
	if done != nil {
		done(true)
	}
}

type presenterCall struct {
	displayed bool
	state     core.MessageState
}

type fakePresenter struct {
	calls []presenterCall
}

func (p *fakePresenter) OnMessageDisplayed(_ message.Message, st core.MessageState) {
	p.calls = append(p.calls, presenterCall{displayed: true, state: st})
}

func (p *fakePresenter) OnMessageDismissed(_ message.Message, st core.MessageState) {
	p.calls = append(p.calls, presenterCall{state: st})
}

type fakeDelegate struct {
	sizes   [][2]float64
	actions []string
}

func (d *fakeDelegate) SizeChanged(_ message.Message, w, h float64) {
	d.sizes = append(d.sizes, [2]float64{w, h})
}

func (d *fakeDelegate) Action(_ message.Message, route, action, name string) {
	d.actions = append(d.actions, route+"|"+action+"|"+name)
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type harness struct {
	store     *fakeStore
	engine    *fakeEngine
	platform  *fakePlatform
	presenter *fakePresenter
	delegate  *fakeDelegate
	cfg       engine.Configuration
	logs      *lockedBuffer
	deps      manager.Deps
}

func newHarness() *harness {
	h := &harness{
		store:     newFakeStore(),
		engine:    &fakeEngine{},
		platform:  &fakePlatform{foreground: true},
		presenter: &fakePresenter{},
		delegate:  &fakeDelegate{},
		logs:      &lockedBuffer{},
	}
	cfg := config.Default()
	cfg.SiteID = "site-1"
	h.deps = manager.Deps{
		Store:     h.store,
		Scheduler: sched.Immediate{},
		Engines: engine.ProviderFunc(func(c engine.Configuration, _ engine.Delegate) (engine.Engine, error) {
			h.cfg = c
			return h.engine, nil
		}),
		Platform:  h.platform,
		Presenter: h.presenter,
		Delegate:  h.delegate,
		Logger:    zerolog.New(h.logs),
		Config:    cfg,
	}
	return h
}

func (h *harness) newManager(t *testing.T, msg message.Message, opts ...manager.Option) *manager.Manager {
	t.Helper()
	m, err := manager.New(msg, h.deps, opts...)
	require.NoError(t, err)
	return m
}

func embedded(id string) message.Message {
	return message.New(id, message.Properties{
		message.GistKey: map[string]any{"elementId": "banner"},
	})
}

func actionNames(actions []core.Action) []string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.Name()
	}
	return names
}

// ---- construction ----

func TestNewBuildsEngineConfiguration(t *testing.T) {
	h := newHarness()
	msg := message.New("welcome", message.Properties{"name": "ada"})
	m := h.newManager(t, msg)

	assert.Equal(t, "site-1", h.cfg.SiteID)
	assert.Equal(t, config.DefaultDataCenter, h.cfg.DataCenter)
	assert.Equal(t, config.EndpointProduction, h.cfg.Endpoint)
	assert.Equal(t, "welcome", h.cfg.MessageID)
	assert.Equal(t, msg.InstanceID, h.cfg.InstanceID)
	assert.Equal(t, "ada", h.cfg.Properties["name"])

	assert.Equal(t, "welcome", m.CurrentRoute(), "route defaults to message id")
	assert.False(t, m.IsMessageLoaded())
	assert.False(t, m.IsEmbedded())
	assert.Len(t, h.store.listeners, 1)
}

func TestNewValidatesDeps(t *testing.T) {
	h := newHarness()
	deps := h.deps
	deps.Store = nil
	_, err := manager.New(message.New("m", nil), deps)
	assert.True(t, errors.Is(err, manager.ErrNoStore))

	deps = h.deps
	deps.Presenter = nil
	_, err = manager.New(message.New("m", nil), deps)
	assert.True(t, errors.Is(err, manager.ErrNoPresenter))
}

func TestNewEngineFailure(t *testing.T) {
	h := newHarness()
	boom := errors.New("no webview")
	h.deps.Engines = engine.ProviderFunc(func(engine.Configuration, engine.Delegate) (engine.Engine, error) {
		return nil, boom
	})
	_, err := manager.New(message.New("m", nil), h.deps)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, h.store.listeners, "no subscription when the engine fails")
}

// ---- bootstrapped ----

func TestBootstrappedTeardownOnlyForEmptyID(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("real", nil))
	m.Bootstrapped()
	assert.Zero(t, h.engine.cleanCount())

	h2 := newHarness()
	empty := h2.newManager(t, message.New("", nil))
	empty.Bootstrapped()
	assert.Equal(t, 1, h2.engine.cleanCount())
}

func TestBootstrappedBeforeEngineReturned(t *testing.T) {
	h := newHarness()
	h.deps.Engines = engine.ProviderFunc(func(_ engine.Configuration, d engine.Delegate) (engine.Engine, error) {
		d.Bootstrapped()
		return h.engine, nil
	})
	h.newManager(t, message.New("", nil))
	assert.Equal(t, 1, h.engine.cleanCount())
}

// ---- routeLoaded ----

func TestRouteLoadedDisplaysOnce(t *testing.T) {
	h := newHarness()
	msg := message.New("welcome", nil)
	m := h.newManager(t, msg)

	for i := 0; i < 3; i++ {
		m.RouteLoaded("welcome")
	}

	actions := h.store.recorded()
	require.Len(t, actions, 1)
	display, ok := actions[0].(core.DisplayMessage)
	require.True(t, ok)
	assert.True(t, display.Message.Equal(msg))
	assert.True(t, m.IsMessageLoaded())
}

func TestRouteLoadedConcurrentDisplaysOnce(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RouteLoaded("welcome")
		}()
	}
	wg.Wait()
	assert.Len(t, h.store.recorded(), 1)
}

func TestRouteLoadedOtherRoute(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.RouteLoaded("page-2")
	assert.Equal(t, "page-2", m.CurrentRoute())
	assert.Empty(t, h.store.recorded())
	assert.False(t, m.IsMessageLoaded())

	m.RouteLoaded("welcome")
	assert.Equal(t, "welcome", m.CurrentRoute())
	assert.Len(t, h.store.recorded(), 1)
}

func TestRouteLoadedBackgroundDismissesSilently(t *testing.T) {
	h := newHarness()
	h.platform.foreground = false
	m := h.newManager(t, message.New("welcome", nil))

	m.RouteLoaded("welcome")

	actions := h.store.recorded()
	require.Len(t, actions, 1)
	dismiss, ok := actions[0].(core.DismissMessage)
	require.True(t, ok)
	assert.False(t, dismiss.ShouldLog)
	assert.False(t, dismiss.ViaCloseAction)
}

func TestRouteLoadedEmbeddedIgnoresBackground(t *testing.T) {
	h := newHarness()
	h.platform.foreground = false
	m := h.newManager(t, embedded("inline"))
	assert.True(t, m.IsEmbedded())

	m.RouteLoaded("inline")
	actions := h.store.recorded()
	require.Len(t, actions, 1)
	assert.IsType(t, core.DisplayMessage{}, actions[0])
}

// ---- errors / size / route changes ----

func TestLoadFailures(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.RouteError("welcome")
	m.Error()

	assert.Equal(t, []string{"messageLoadingFailed", "messageLoadingFailed"}, actionNames(h.store.recorded()))
}

func TestSizeChangedForwarded(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.SizeChanged(320, 180.5)
	m.RouteChanged("somewhere")

	assert.Equal(t, [][2]float64{{320, 180.5}}, h.delegate.sizes)
	assert.Empty(t, h.store.recorded())
	assert.Contains(t, h.logs.String(), "engine route changed")
}

func TestSizeChangedWithoutDelegate(t *testing.T) {
	h := newHarness()
	h.deps.Delegate = nil
	m := h.newManager(t, message.New("welcome", nil))
	m.SizeChanged(1, 1)
	m.Tap("n", "gist://close", false)
	assert.Len(t, h.store.recorded(), 2)
}

// ---- tap ----

func TestTapClose(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))
	m.RouteLoaded("page-3")

	m.Tap("close-button", "gist://close", false)

	actions := h.store.recorded()
	require.Len(t, actions, 2)
	tap, ok := actions[0].(core.EngineTap)
	require.True(t, ok)
	assert.Equal(t, "page-3", tap.Route)
	assert.Equal(t, "close-button", tap.TapName)
	assert.Equal(t, "gist://close", tap.Action)

	dismiss, ok := actions[1].(core.DismissMessage)
	require.True(t, ok)
	assert.True(t, dismiss.ViaCloseAction)
	assert.True(t, dismiss.ShouldLog)

	assert.Equal(t, []string{"page-3|gist://close|close-button"}, h.delegate.actions)
}

func TestTapLoadPageKeepsFragment(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("docs", "gist://loadPage?url=https://example.com/docs?a=1#section-2", false)

	require.Len(t, h.platform.opened, 1)
	opened := h.platform.opened[0]
	assert.Equal(t, "https://example.com/docs?a=1#section-2", opened.String())
	assert.Equal(t, "section-2", opened.Fragment)
	assert.Equal(t, []string{"engineTap"}, actionNames(h.store.recorded()))
}

func TestTapLoadPageInvalidURLIgnored(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("docs", "gist://loadPage?url=%zz", false)
	m.Tap("docs", "gist://loadPage", false)
	assert.Empty(t, h.platform.opened)
}

func TestTapShowMessageReplacesModal(t *testing.T) {
	h := newHarness()
	current := message.New("welcome", nil)
	m := h.newManager(t, current)

	props := base64.StdEncoding.EncodeToString([]byte(`{"k":">>>"}`))
	require.Contains(t, props, "+")
	m.Tap("next", "gist://showMessage?messageId=follow-up&properties="+props, false)

	actions := h.store.recorded()
	require.Equal(t, []string{"engineTap", "dismissMessage", "loadMessage"}, actionNames(actions))

	dismiss := actions[1].(core.DismissMessage)
	assert.True(t, dismiss.Message.Equal(current))
	assert.False(t, dismiss.ShouldLog)

	load := actions[2].(core.LoadMessage)
	assert.Equal(t, "follow-up", load.Message.MessageID)
	assert.Equal(t, ">>>", load.Message.Properties["k"])
	assert.NotEqual(t, current.InstanceID, load.Message.InstanceID)
}

func TestTapShowMessageStacksEmbedded(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, embedded("inline"))

	m.Tap("next", "gist://showMessage?messageId=follow-up", false)

	assert.Equal(t, []string{"engineTap", "loadMessage"}, actionNames(h.store.recorded()))
}

func TestTapShowMessageMalformedPropertiesIgnored(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("next", "gist://showMessage?messageId=a&properties=!!notbase64", false)
	notJSON := base64.StdEncoding.EncodeToString([]byte("not json"))
	m.Tap("next", "gist://showMessage?messageId=b&properties="+notJSON, false)

	var loads []core.LoadMessage
	for _, a := range h.store.recorded() {
		if l, ok := a.(core.LoadMessage); ok {
			loads = append(loads, l)
		}
	}
	require.Len(t, loads, 2)
	assert.Nil(t, loads[0].Message.Properties)
	assert.Nil(t, loads[1].Message.Properties)
}

func TestTapShowMessageWithoutID(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("next", "gist://showMessage", false)
	assert.Equal(t, []string{"engineTap"}, actionNames(h.store.recorded()))
}

func TestTapExternalUserTriggered(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("link", "https://example.com", false)

	assert.Equal(t, []string{"engineTap"}, actionNames(h.store.recorded()))
	assert.Empty(t, h.platform.activities)
	assert.Empty(t, h.platform.opened)
	assert.Len(t, h.delegate.actions, 1)
}

func TestTapExternalSystemHandledByHost(t *testing.T) {
	h := newHarness()
	h.platform.handles = true
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("link", "https://example.com/promo", true)

	actions := h.store.recorded()
	require.Equal(t, []string{"engineTap", "dismissMessage"}, actionNames(actions))
	assert.False(t, actions[1].(core.DismissMessage).ShouldLog)

	require.Len(t, h.platform.activities, 1)
	assert.Equal(t, host.ActivityTypeBrowsingWeb, h.platform.activities[0].Type)
	assert.Empty(t, h.platform.opened)
}

func TestTapExternalSystemFallsBackToOpenURL(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("link", "https://example.com/promo", true)
	m.Tap("deep", "myapp://settings", true)

	require.Len(t, h.platform.activities, 1, "only http(s) is offered to the host")
	require.Len(t, h.platform.opened, 2)
	assert.Equal(t, "myapp://settings", h.platform.opened[1].String())
}

func TestTapUnknownGistHost(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	m.Tap("x", "gist://teleport", true)
	assert.Equal(t, []string{"engineTap"}, actionNames(h.store.recorded()))
	assert.Empty(t, h.platform.opened)
}

// ---- store subscription ----

func TestStoreDisplayedInvokesPresenter(t *testing.T) {
	h := newHarness()
	msg := message.New("welcome", nil)
	h.newManager(t, msg)

	h.store.emit(core.Loading(msg))
	assert.Empty(t, h.presenter.calls, "loading is ignored")

	h.store.emit(core.Displayed(msg))
	require.Len(t, h.presenter.calls, 1)
	assert.True(t, h.presenter.calls[0].displayed)
}

func TestStoreDismissedClosesManager(t *testing.T) {
	h := newHarness()
	msg := message.New("welcome", nil)
	var closed *manager.Manager
	m := h.newManager(t, msg, manager.WithOnClose(func(mm *manager.Manager) { closed = mm }))

	h.store.emit(core.Dismissed(msg))

	require.Len(t, h.presenter.calls, 1)
	assert.False(t, h.presenter.calls[0].displayed)
	assert.True(t, m.IsClosed())
	assert.Same(t, m, closed)
	assert.Equal(t, 1, h.engine.cleanCount())
	assert.Empty(t, h.store.listeners)
}

func TestStoreDismissedOtherMessage(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	h.store.emit(core.Dismissed(message.New("other", nil)))

	assert.Len(t, h.presenter.calls, 1)
	assert.False(t, m.IsClosed())
}

func TestStoreInitialClosesManager(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("welcome", nil))

	h.store.emit(core.Initial())
	assert.True(t, m.IsClosed())
}

func TestAutoCloseDisabled(t *testing.T) {
	h := newHarness()
	msg := message.New("welcome", nil)
	m := h.newManager(t, msg, manager.WithAutoClose(false))

	h.store.emit(core.Dismissed(msg))
	assert.False(t, m.IsClosed())
	assert.Len(t, h.presenter.calls, 1)
}

// ---- teardown ----

func TestCloseIdempotent(t *testing.T) {
	h := newHarness()
	calls := 0
	m := h.newManager(t, message.New("welcome", nil), manager.WithOnClose(func(*manager.Manager) { calls++ }))

	m.Close()
	m.Close()

	assert.Equal(t, 1, h.engine.cleanCount())
	assert.Len(t, h.store.unsubscribed, 1)
	assert.Equal(t, 1, calls)

	m.Bootstrapped()
	assert.Equal(t, 1, h.engine.cleanCount(), "detached engine is not touched again")
}

func TestCloseBeforeBootstrapOfEmptyMessage(t *testing.T) {
	h := newHarness()
	m := h.newManager(t, message.New("", nil))
	m.Close()
	m.Bootstrapped()
	assert.Equal(t, 1, h.engine.cleanCount())
}
