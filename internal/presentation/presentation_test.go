package presentation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/movers/internal/contracts"
	"github.com/wonny/movers/pkg/logger"
)

func testResult(t *testing.T) *contracts.CycleResult {
	t.Helper()
	at := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)

	aaa, err := contracts.NewSnapshot("AAA", decimal.NewFromInt(110), decimal.NewFromInt(100),
		contracts.Fundamentals{PERatio: contracts.Available(decimal.RequireFromString("18.456"))}, at)
	require.NoError(t, err)
	bbb, err := contracts.NewSnapshot("BBB", decimal.NewFromInt(90), decimal.NewFromInt(100), contracts.Fundamentals{}, at)
	require.NoError(t, err)
	aaa = aaa.WithReasons([]string{"Positive price momentum", "Strong recent gains"})
	bbb = bbb.WithReasons([]string{"No specific reason identified"})

	return &contracts.CycleResult{
		CycleID:    "cycle-1",
		StartedAt:  at,
		FinishedAt: at.Add(2 * time.Second),
		Universe:   []string{"AAA", "BBB", "CCC"},
		Scored: []contracts.ScoredSnapshot{
			{Snapshot: aaa, Admitted: true},
			{Snapshot: bbb},
		},
		Skipped: []contracts.SymbolFailure{{Symbol: "CCC", Reason: "upstream 502"}},
		Boards: []contracts.BoardView{
			{Kind: contracts.Daily, Entries: []contracts.Snapshot{aaa}, ValidUntil: at.Add(14 * time.Hour), Admitted: []string{"AAA"}},
			{Kind: contracts.Weekly, Error: "leaderboard store load weekly: refused"},
		},
	}
}

func TestConsole_Present(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewConsole(&buf).Present(context.Background(), testResult(t)))
	out := buf.String()

	for _, want := range []string{
		"Screened 2 of 3 symbols",
		"AAA", "110.00", "+10.00%", "18.46",
		"BBB", "-10.00%", "N/A",
		"Positive price momentum, Strong recent gains",
		"skipped CCC: upstream 502",
		"Today's top stocks",
		"This week's top stocks",
		"No top stocks this week",
		"error: leaderboard store load weekly",
	} {
		assert.Contains(t, out, want)
	}
}

func TestRenderBoard_EmptyLabels(t *testing.T) {
	assert.Contains(t, RenderBoard(contracts.BoardView{Kind: contracts.Daily}), "No top stock today")
	assert.Contains(t, RenderBoard(contracts.BoardView{Kind: contracts.Weekly}), "No top stocks this week")
}

type stubPresenter struct {
	calls int
	err   error
}

func (s *stubPresenter) Present(context.Context, *contracts.CycleResult) error {
	s.calls++
	return s.err
}

func TestMulti_RunsEveryPresenter(t *testing.T) {
	failing := &stubPresenter{err: errors.New("pipe closed")}
	ok := &stubPresenter{}

	err := Multi{failing, nil, ok}.Present(context.Background(), testResult(t))
	assert.EqualError(t, err, "pipe closed")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestHub_BroadcastsCycle(t *testing.T) {
	hub := NewHub(logger.Nop())
	srv := httptest.NewServer(hub)
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.Clients() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, hub.Present(context.Background(), testResult(t)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string                 `json:"type"`
		Data contracts.CycleResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, MessageCycle, msg.Type)
	assert.Equal(t, "cycle-1", msg.Data.CycleID)
	require.Len(t, msg.Data.Boards, 2)
	assert.Equal(t, "AAA", msg.Data.Boards[0].Entries[0].Symbol)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Clients() == 0 }, 2*time.Second, 5*time.Millisecond)
}
