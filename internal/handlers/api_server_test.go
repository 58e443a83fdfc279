// internal/handlers/api_server_test.go
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/auth"
	"github.com/jason-s-yu/oracle/internal/database"
	"github.com/jason-s-yu/oracle/internal/entitlement"
	"github.com/jason-s-yu/oracle/internal/interpreter"
	"github.com/jason-s-yu/oracle/internal/reading"
	"github.com/jason-s-yu/oracle/internal/tarot"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompleter streams its answer word by word.
type fakeCompleter struct {
	text string
	err  error
}

func (f *fakeCompleter) Complete(context.Context, interpreter.Prompt) (string, error) {
	return f.text, f.err
}

func (f *fakeCompleter) CompleteStream(_ context.Context, _ interpreter.Prompt, onDelta interpreter.DeltaFunc) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	for _, word := range strings.SplitAfter(f.text, " ") {
		if err := onDelta(word); err != nil {
			return "", err
		}
	}
	return f.text, nil
}

const oracleAnswer = "The Wheel turns in your favour."

type testServer struct {
	*httptest.Server
	store     *database.MemStore
	completer *fakeCompleter
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	logger, _ := test.NewNullLogger()

	store := database.NewMemStore()
	deck, err := tarot.DefaultDeck()
	require.NoError(t, err)
	require.NoError(t, store.ReplaceCards(ctx, deck.Cards))

	tokens, err := auth.NewTokenManager(time.Hour)
	require.NoError(t, err)
	accounts := auth.NewAccounts(store, tokens, logger)

	completer := &fakeCompleter{text: oracleAnswer}
	catalog := tarot.NewCatalog(store)
	readings := reading.NewService(reading.Deps{
		Catalog:     catalog,
		Interpreter: interpreter.NewOracle(completer, logger),
		Gate:        entitlement.NewGate(entitlement.ClientCounter{}, logger),
		Store:       store,
		Profiles:    accounts,
		Logger:      logger,
	})

	srv := NewAPIServer(Deps{
		Accounts: accounts,
		Readings: readings,
		Catalog:  catalog,
		Health:   store,
		Logger:   logger,
	})
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store, completer: completer}
}

type apiResponse struct {
	status int
	header http.Header
	body   map[string]any
}

func (r apiResponse) errorMessage() string {
	msg, _ := r.body["error"].(string)
	return msg
}

// call sends a request with an optional JSON body and extra headers.
func (ts *testServer) call(t *testing.T, method, path string, body any, headers map[string]string) apiResponse {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := apiResponse{status: resp.StatusCode, header: resp.Header}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out.body))
	return out
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (ts *testServer) register(t *testing.T, username string) string {
	t.Helper()
	res := ts.call(t, http.MethodPost, "/auth/register", map[string]any{
		"username":   username,
		"email":      username + "@example.com",
		"password":   "hunter22",
		"birth_date": "1992-02-29",
		"gender":     "female",
	}, nil)
	require.Equal(t, http.StatusCreated, res.status, res.body)
	token, _ := res.body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	res := ts.call(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, true, res.body["success"])
	assert.Equal(t, "ok", res.body["status"])
}

func TestListCards(t *testing.T) {
	ts := newTestServer(t)

	res := ts.call(t, http.MethodGet, "/tarot/cards", nil, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, tarot.FullDeckSize, res.body["total"])

	res = ts.call(t, http.MethodGet, "/tarot/cards?suit=cups", nil, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.EqualValues(t, 14, res.body["total"])

	res = ts.call(t, http.MethodGet, "/tarot/cards?suit=coins", nil, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, false, res.body["success"])
}

func TestListSpreads(t *testing.T) {
	ts := newTestServer(t)
	res := ts.call(t, http.MethodGet, "/tarot/spreads", nil, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Len(t, res.body["spreads"], 3)
}

func TestDrawAnonymousTrialFlow(t *testing.T) {
	ts := newTestServer(t)
	body := map[string]string{"spread_type": "three-card", "question": "Should I move abroad?"}

	first := ts.call(t, http.MethodPost, "/tarot/draw", body, nil)
	require.Equal(t, http.StatusOK, first.status, first.body)
	assert.Equal(t, true, first.body["is_trial"])
	assert.Equal(t, "full", first.body["access"])
	assert.Nil(t, first.body["reading_id"])
	assert.Equal(t, oracleAnswer, first.body["interpretation"])
	assert.Len(t, first.body["cards"], 3)
	assert.Equal(t, "1", first.header.Get(TrialUsesHeader))
	assert.Contains(t, first.header.Get("Set-Cookie"), GuestCookieName+"=")

	second := ts.call(t, http.MethodPost, "/tarot/draw", body, map[string]string{TrialUsesHeader: "1"})
	require.Equal(t, http.StatusOK, second.status)
	assert.Equal(t, "trial_limited", second.body["access"])
	assert.Equal(t, oracleAnswer, second.body["interpretation"], "content is never truncated")
	assert.Equal(t, "2", second.header.Get(TrialUsesHeader))
}

func TestDrawValidation(t *testing.T) {
	ts := newTestServer(t)

	res := ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"question": "q"}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Please select a spread type", res.errorMessage())

	res = ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"spread_type": "single", "question": "   "}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Please enter your question", res.errorMessage())

	res = ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"spread_type": "single", "question": strings.Repeat("x", 201)}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Question cannot exceed 200 characters", res.errorMessage())

	res = ts.call(t, http.MethodPost, "/tarot/draw", "{not json", nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestDrawUnknownSpreadFallsBack(t *testing.T) {
	ts := newTestServer(t)
	res := ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"spread_type": "horseshoe", "question": "q"}, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, tarot.SpreadSingle, res.body["spread_type"])
	assert.Len(t, res.body["cards"], 1)
}

func TestDrawInterpreterUnavailable(t *testing.T) {
	ts := newTestServer(t)
	ts.completer.err = errors.New("model overloaded")

	res := ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"spread_type": "single", "question": "q"}, nil)
	assert.Equal(t, http.StatusServiceUnavailable, res.status)
	assert.Equal(t, "Oracle service unavailable: model overloaded", res.errorMessage())
}

func TestDrawEmptyCatalog(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, ts.store.ReplaceCards(context.Background(), nil))

	res := ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"spread_type": "single", "question": "q"}, nil)
	assert.Equal(t, http.StatusInternalServerError, res.status)
	assert.Equal(t, "Tarot deck not initialized. Please contact support.", res.errorMessage())
}

func TestChatAnonymous(t *testing.T) {
	ts := newTestServer(t)

	res := ts.call(t, http.MethodPost, "/fortune/chat", map[string]any{
		"question": "Will my garden bloom?",
		"userInfo": map[string]string{"gender": "other"},
	}, nil)
	require.Equal(t, http.StatusOK, res.status)
	assert.Equal(t, oracleAnswer, res.body["result"])
	assert.Nil(t, res.body["fortune_id"])
	assert.Equal(t, true, res.body["is_trial"])

	res = ts.call(t, http.MethodPost, "/fortune/chat", map[string]any{"question": strings.Repeat("x", 501)}, nil)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "Question cannot exceed 500 characters", res.errorMessage())
}

func TestAccountFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "seer")

	dup := ts.call(t, http.MethodPost, "/auth/register", map[string]any{
		"username": "seer", "email": "other@example.com", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusConflict, dup.status)

	bad := ts.call(t, http.MethodPost, "/auth/register", map[string]any{
		"username": "x", "email": "x@example.com", "password": "hunter22",
	}, nil)
	assert.Equal(t, http.StatusBadRequest, bad.status)
	assert.Equal(t, "Username may contain letters, numbers, and underscores (3-50 chars)", bad.errorMessage())

	wrong := ts.call(t, http.MethodPost, "/auth/login", map[string]string{"email": "seer@example.com", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, wrong.status)
	assert.Equal(t, "Incorrect email or password", wrong.errorMessage())

	unknown := ts.call(t, http.MethodPost, "/auth/login", map[string]string{"email": "ghost@example.com", "password": "hunter22"}, nil)
	assert.Equal(t, wrong.errorMessage(), unknown.errorMessage())

	login := ts.call(t, http.MethodPost, "/auth/login", map[string]string{"email": "SEER@example.com", "password": "hunter22"}, nil)
	require.Equal(t, http.StatusOK, login.status)
	assert.Contains(t, login.header.Get("Set-Cookie"), auth.CookieName+"=")

	me := ts.call(t, http.MethodGet, "/auth/me", nil, bearer(token))
	require.Equal(t, http.StatusOK, me.status)
	user := me.body["user"].(map[string]any)
	assert.Equal(t, "seer", user["username"])
	assert.Equal(t, "1992-02-29", user["birth_date"])
	assert.NotContains(t, user, "password")

	invalid := ts.call(t, http.MethodPut, "/auth/me", map[string]string{"gender": "dragon"}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, invalid.status)

	updated := ts.call(t, http.MethodPut, "/auth/me", map[string]string{"birth_time": "07:30", "gender": "Male"}, bearer(token))
	require.Equal(t, http.StatusOK, updated.status)
	user = updated.body["user"].(map[string]any)
	assert.Equal(t, "07:30", user["birth_time"])
	assert.Equal(t, "male", user["gender"])
	assert.NotContains(t, user, "birth_date", "omitted fields are cleared")

	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodGet, "/auth/me", nil, nil).status)
	assert.Equal(t, http.StatusUnauthorized, ts.call(t, http.MethodGet, "/auth/me", nil, bearer("garbage")).status)
}

func TestCookieAuthentication(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "cookie_user")

	res := ts.call(t, http.MethodGet, "/auth/me", nil, map[string]string{"Cookie": auth.CookieName + "=" + token})
	assert.Equal(t, http.StatusOK, res.status)
}

func TestHistoryFlow(t *testing.T) {
	ts := newTestServer(t)
	token := ts.register(t, "historian")
	other := ts.register(t, "snoop")

	draw := ts.call(t, http.MethodPost, "/tarot/draw", map[string]string{"spread_type": "celtic-cross", "question": "Career?"}, bearer(token))
	require.Equal(t, http.StatusOK, draw.status)
	assert.Equal(t, false, draw.body["is_trial"])
	assert.Equal(t, "full", draw.body["access"])
	assert.Empty(t, draw.header.Get(TrialUsesHeader))
	readingID, _ := draw.body["reading_id"].(string)
	require.NotEmpty(t, readingID)

	chat := ts.call(t, http.MethodPost, "/fortune/chat", map[string]string{"question": "Love?"}, bearer(token))
	require.Equal(t, http.StatusOK, chat.status)
	fortuneID, _ := chat.body["fortune_id"].(string)
	require.NotEmpty(t, fortuneID)

	all := ts.call(t, http.MethodGet, "/history", nil, bearer(token))
	require.Equal(t, http.StatusOK, all.status)
	assert.Len(t, all.body["fortunes"], 1)
	assert.Len(t, all.body["tarot_readings"], 1)
	assert.Equal(t, map[string]any{"fortunes": 1.0, "tarot": 1.0}, all.body["total"])

	tarotOnly := ts.call(t, http.MethodGet, "/history?type=tarot&limit=5&offset=0", nil, bearer(token))
	require.Equal(t, http.StatusOK, tarotOnly.status)
	assert.Empty(t, tarotOnly.body["fortunes"])
	assert.Equal(t, map[string]any{"fortunes": 0.0, "tarot": 1.0}, tarotOnly.body["total"])

	badType := ts.call(t, http.MethodGet, "/history?type=dreams", nil, bearer(token))
	assert.Equal(t, http.StatusBadRequest, badType.status)
	assert.Equal(t, "Invalid type parameter", badType.errorMessage())

	followUp := ts.call(t, http.MethodPost, "/history/tarot-followup", map[string]string{"history_id": readingID, "question": "And next year?"}, bearer(token))
	require.Equal(t, http.StatusOK, followUp.status)
	assert.Equal(t, oracleAnswer, followUp.body["answer"])

	chatFollowUp := ts.call(t, http.MethodPost, "/history/followup", map[string]string{"history_id": fortuneID, "question": "When?"}, bearer(token))
	assert.Equal(t, http.StatusOK, chatFollowUp.status)

	wrongKind := ts.call(t, http.MethodPost, "/history/followup", map[string]string{"history_id": readingID, "question": "q"}, bearer(token))
	assert.Equal(t, http.StatusNotFound, wrongKind.status)
	assert.Equal(t, "History record not found", wrongKind.errorMessage())

	snooping := ts.call(t, http.MethodPost, "/history/tarot-followup", map[string]string{"history_id": readingID, "question": "q"}, bearer(other))
	assert.Equal(t, http.StatusNotFound, snooping.status)

	badID := ts.call(t, http.MethodPost, "/history/followup", map[string]string{"history_id": "42", "question": "q"}, bearer(token))
	assert.Equal(t, http.StatusBadRequest, badID.status)
	assert.Equal(t, "Invalid history id", badID.errorMessage())

	missing := ts.call(t, http.MethodDelete, "/history?type=tarot", nil, bearer(token))
	assert.Equal(t, http.StatusBadRequest, missing.status)
	assert.Equal(t, "Missing required parameters", missing.errorMessage())

	del := ts.call(t, http.MethodDelete, fmt.Sprintf("/history?type=tarot&id=%s", readingID), nil, bearer(other))
	assert.Equal(t, http.StatusNotFound, del.status, "other users cannot delete")

	del = ts.call(t, http.MethodDelete, fmt.Sprintf("/history?type=tarot&id=%s", readingID), nil, bearer(token))
	assert.Equal(t, http.StatusOK, del.status)
	del = ts.call(t, http.MethodDelete, fmt.Sprintf("/history?type=tarot&id=%s", readingID), nil, bearer(token))
	assert.Equal(t, http.StatusNotFound, del.status)

	del = ts.call(t, http.MethodDelete, fmt.Sprintf("/history?type=fortune&id=%s", fortuneID), nil, bearer(token))
	assert.Equal(t, http.StatusOK, del.status)
}

func TestHistoryRequiresSignIn(t *testing.T) {
	ts := newTestServer(t)

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/history"},
		{http.MethodDelete, "/history?type=tarot&id=00000000-0000-0000-0000-000000000001"},
		{http.MethodPost, "/history/followup"},
		{http.MethodPost, "/history/tarot-followup"},
	} {
		res := ts.call(t, tc.method, tc.path, map[string]string{}, nil)
		assert.Equal(t, http.StatusUnauthorized, res.status, tc.path)
		assert.Equal(t, "Unauthorized. Please sign in.", res.errorMessage(), tc.path)
	}
}

func TestLogout(t *testing.T) {
	ts := newTestServer(t)
	res := ts.call(t, http.MethodPost, "/auth/logout", nil, nil)
	assert.Equal(t, http.StatusOK, res.status)
	assert.Contains(t, res.header.Get("Set-Cookie"), "Max-Age=0")
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{apperrors.Invalid("q", "bad"), http.StatusBadRequest},
		{apperrors.ErrUnauthorized, http.StatusUnauthorized},
		{fmt.Errorf("lookup: %w", apperrors.ErrNotFound), http.StatusNotFound},
		{apperrors.New(apperrors.ErrConflict, "taken"), http.StatusConflict},
		{apperrors.ErrCatalogUnavailable, http.StatusInternalServerError},
		{apperrors.ErrInsufficientCards, http.StatusInternalServerError},
		{&interpreter.UnavailableError{Op: "tarot", Err: errors.New("x")}, http.StatusServiceUnavailable},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
	assert.Equal(t, "Internal server error", publicMessage(errors.New("pq: secret detail"), http.StatusInternalServerError))
}
