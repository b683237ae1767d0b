package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/tazuo/autoloot/internal/config"
	"github.com/tazuo/autoloot/internal/domain"
	"github.com/tazuo/autoloot/internal/events"
	"github.com/tazuo/autoloot/internal/health"
	"github.com/tazuo/autoloot/internal/journal"
	"github.com/tazuo/autoloot/internal/session"
	"github.com/tazuo/autoloot/internal/settings"
	"github.com/tazuo/autoloot/internal/world"
)

// MockEngine is a mock implementation of Engine
type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Status() session.Status {
	args := m.Called()
	return args.Get(0).(session.Status)
}

func (m *MockEngine) Post(ev events.Event) {
	m.Called(ev)
}

func (m *MockEngine) RecheckAll() {
	m.Called()
}

func (m *MockEngine) ForceLoot(serial uint32) {
	m.Called(serial)
}

func (m *MockEngine) Highlight(ctx context.Context, serial uint32) (domain.MatchResult, bool, error) {
	args := m.Called(ctx, serial)
	return args.Get(0).(domain.MatchResult), args.Bool(1), args.Error(2)
}

func (m *MockEngine) Settings(ctx context.Context) (*settings.Settings, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Settings), args.Error(1)
}

func (m *MockEngine) Friends(ctx context.Context) (*settings.Friends, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*settings.Friends), args.Error(1)
}

func (m *MockEngine) Profile() *session.LiveProfile {
	args := m.Called()
	return args.Get(0).(*session.LiveProfile)
}

func (m *MockEngine) Journal() *journal.Journal {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*journal.Journal)
}

// MockMoveSource is a mock implementation of MoveSource
type MockMoveSource struct {
	mock.Mock
}

func (m *MockMoveSource) Take() []uint32 {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]uint32)
}

func mockApp(engine *MockEngine, moves *MockMoveSource, checker *health.Checker) *fiber.App {
	if checker == nil {
		checker = health.NewChecker()
	}
	return SetupRouter(RouterDependencies{
		Engine: engine,
		World:  world.NewMemory(),
		Moves:  moves,
		Health: checker,
	}, RouterConfig{BodyLimit: 1 << 20}).App
}

func decode(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func jsonBody(t *testing.T, v any) *bytes.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewReader(raw)
}

func TestHandlers_JournalUnavailable(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Journal").Return(nil)
	app := mockApp(engine, new(MockMoveSource), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/journal", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, domain.ErrUnavailable, decode(t, resp)["code"])
	engine.AssertExpectations(t)
}

func TestHandlers_HighlightErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not started", session.ErrNotStarted, http.StatusServiceUnavailable, domain.ErrUnavailable},
		{"stopped", session.ErrStopped, http.StatusServiceUnavailable, domain.ErrUnavailable},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, domain.ErrUnavailable},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, domain.ErrInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := new(MockEngine)
			engine.On("Highlight", mock.Anything, uint32(0x10)).Return(domain.MatchResult{}, false, tt.err)
			app := mockApp(engine, new(MockMoveSource), nil)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/highlights/16", nil))
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.code, decode(t, resp)["code"])
			engine.AssertExpectations(t)
		})
	}
}

func TestHandlers_SettingsOpenFailure(t *testing.T) {
	engine := new(MockEngine)
	engine.On("Settings", mock.Anything).Return(nil, domain.ErrDisposed("settings"))
	app := mockApp(engine, new(MockMoveSource), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/v1/settings", nil))
	require.NoError(t, err)
	body := decode(t, resp)
	assert.Equal(t, domain.ErrDisposed("settings").StatusCode, resp.StatusCode)
	assert.Equal(t, domain.ErrDisposed("settings").Code, body["code"])
}

func TestHandlers_RecheckSchedules(t *testing.T) {
	engine := new(MockEngine)
	engine.On("RecheckAll").Return().Once()
	app := mockApp(engine, new(MockMoveSource), nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/v1/highlight/recheck", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	engine.AssertExpectations(t)
}

func TestHandlers_MovesDrainSource(t *testing.T) {
	engine := new(MockEngine)
	moves := new(MockMoveSource)
	moves.On("Take").Return([]uint32{1, 2}).Once()
	moves.On("Take").Return(nil).Once()
	app := mockApp(engine, moves, nil)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/v1/moves/take", nil))
	require.NoError(t, err)
	data := decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, []any{float64(1), float64(2)}, data["moves"])

	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/v1/moves/take", nil))
	require.NoError(t, err)
	data = decode(t, resp)["data"].(map[string]any)
	assert.Equal(t, []any{}, data["moves"])
	assert.Equal(t, float64(0), data["count"])
	moves.AssertExpectations(t)
}

func TestHandlers_HealthUnhealthy(t *testing.T) {
	checker := health.NewChecker()
	checker.Register("settings", func(context.Context) domain.HealthStatus {
		return domain.HealthStatus{Status: domain.HealthStatusUnhealthy, Message: "closed"}
	})
	app := mockApp(new(MockEngine), new(MockMoveSource), checker)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, domain.HealthStatusUnhealthy, decode(t, resp)["status"])
}

func TestHandlers_ProfileUpdateKeepsUnsetFields(t *testing.T) {
	live := session.NewLiveProfile(config.Profile{AutoLoot: true, OpenRange: 3, Delay: 700_000_000})
	engine := new(MockEngine)
	engine.On("Profile").Return(live)
	app := mockApp(engine, new(MockMoveSource), nil)

	req := httptest.NewRequest(http.MethodPatch, "/v1/profile", jsonBody(t, map[string]any{"loot_human_corpses": true}))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	p := live.Get()
	assert.True(t, p.AutoLoot)
	assert.True(t, p.HumanCorpses)
	assert.Equal(t, 3, p.OpenRange)
	assert.Equal(t, int64(700), p.Delay.Milliseconds())
}

// Property: decimal and hex spellings of a serial parse to the same value.
func TestParseSerial_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("decimal and hex agree", prop.ForAll(
		func(serial uint32) bool {
			dec, err1 := parseSerial(strconv.FormatUint(uint64(serial), 10))
			hex, err2 := parseSerial("0x" + strconv.FormatUint(uint64(serial), 16))
			return err1 == nil && err2 == nil && dec == serial && hex == serial
		},
		gen.UInt32(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestParseSerial_Rejects(t *testing.T) {
	for _, raw := range []string{"", "abc", "-1", "0x1FFFFFFFF"} {
		_, err := parseSerial(raw)
		assert.Error(t, err, raw)
	}
}
