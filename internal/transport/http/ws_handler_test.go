package http

import (
	"encoding/json"
	"fmt"
	"math/rand"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/domain"
	"battle-quiz-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T, sets map[string]domain.QuestionSet) *httptest.Server {
	t.Helper()
	banks := memory.NewBankRepository(memory.NewStaticSetLoader(sets), time.Minute)
	service := app.NewBattleService(memory.NewBattleStore(), banks, memory.NewCareerStore()).
		WithRand(func() *rand.Rand { return rand.New(rand.NewSource(11)) })
	handler := NewWSHandler(service, app.StartConfig{
		MaxPlayerHP: 100,
		MaxEnemyHP:  20,
		BaseDamage:  10,
	})
	srv := httptest.NewServer(nethttp.HandlerFunc(handler.ServeWS))
	t.Cleanup(srv.Close)
	return srv
}

func dialWS(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

type rawMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readMessage(t *testing.T, conn *websocket.Conn) rawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg rawMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func wsSet(n int) map[string]domain.QuestionSet {
	set := domain.QuestionSet{Topic: "algo"}
	for i := 0; i < n; i++ {
		set.Questions = append(set.Questions, domain.Question{
			Type:         domain.TypeTrueFalse,
			Prompt:       fmt.Sprintf("statement %d", i),
			Tier:         1,
			Options:      []string{"True", "False"},
			CorrectIndex: 0,
		})
	}
	return map[string]domain.QuestionSet{"algo": set}
}

func TestWSBattleFlow(t *testing.T) {
	srv := newTestServer(t, wsSet(8))
	conn := dialWS(t, srv, "playerId=p1&topic=algo&tier=1")

	msg := readMessage(t, conn)
	if msg.Type != "battle" {
		t.Fatalf("first message: %s", msg.Type)
	}
	var status domain.BattleStatus
	if err := json.Unmarshal(msg.Payload, &status); err != nil {
		t.Fatalf("battle payload: %v", err)
	}
	if status.Phase != domain.PhaseQuestionActive || status.EnemyHP != 20 {
		t.Fatalf("status: %+v", status)
	}

	msg = readMessage(t, conn)
	if msg.Type != "question" {
		t.Fatalf("second message: %s", msg.Type)
	}
	var view domain.QuestionView
	if err := json.Unmarshal(msg.Payload, &view); err != nil {
		t.Fatalf("question payload: %v", err)
	}
	if view.Prompt == "" || len(view.Options) != 2 {
		t.Fatalf("view: %+v", view)
	}

	// First correct hit: 10 damage, battle continues, next question arrives.
	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": domain.Answer{OptionIndex: 0}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if msg.Type != "answerResult" {
		t.Fatalf("after answer: %s", msg.Type)
	}
	var result domain.AnswerResult
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	if !result.Correct || result.EnemyHP != 10 {
		t.Fatalf("result: %+v", result)
	}
	if msg = readMessage(t, conn); msg.Type != "question" {
		t.Fatalf("expected next question, got %s", msg.Type)
	}

	// Second correct hit kills the enemy; the battle summary follows.
	if err := conn.WriteJSON(map[string]any{"type": "answer", "payload": domain.Answer{OptionIndex: 0}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg = readMessage(t, conn)
	if err := json.Unmarshal(msg.Payload, &result); err != nil {
		t.Fatalf("result payload: %v", err)
	}
	if result.Phase != domain.PhaseVictory {
		t.Fatalf("killing blow: %+v", result)
	}
	msg = readMessage(t, conn)
	if msg.Type != "battleEnded" {
		t.Fatalf("expected battleEnded, got %s", msg.Type)
	}
	var final domain.FinalResult
	if err := json.Unmarshal(msg.Payload, &final); err != nil {
		t.Fatalf("final payload: %v", err)
	}
	if final.Phase != domain.PhaseVictory || final.CorrectAnswers != 2 || final.Score <= 0 {
		t.Fatalf("final: %+v", final)
	}
}

func TestWSTickDrivesTimer(t *testing.T) {
	srv := newTestServer(t, wsSet(4))
	conn := dialWS(t, srv, "topic=algo&tier=1")

	readMessage(t, conn) // battle
	readMessage(t, conn) // question

	if err := conn.WriteJSON(map[string]any{"type": "tick", "payload": map[string]any{"deltaSeconds": 5.0}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "timer" {
		t.Fatalf("after tick: %s", msg.Type)
	}
	var view domain.TimerView
	if err := json.Unmarshal(msg.Payload, &view); err != nil {
		t.Fatalf("timer payload: %v", err)
	}
	if view.RemainingSeconds != 25 || view.Expired {
		t.Fatalf("timer: %+v", view)
	}
}

func TestWSRejectsMissingTopic(t *testing.T) {
	srv := newTestServer(t, wsSet(4))
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?tier=1"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("dial succeeded without topic")
	}
	if resp == nil || resp.StatusCode != 400 {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestWSUnknownTopicSendsError(t *testing.T) {
	srv := newTestServer(t, wsSet(4))
	conn := dialWS(t, srv, "topic=missing&tier=1")
	msg := readMessage(t, conn)
	if msg.Type != "error" {
		t.Fatalf("expected error message, got %s", msg.Type)
	}
}

func TestWSRestartResendsBattle(t *testing.T) {
	srv := newTestServer(t, wsSet(6))
	conn := dialWS(t, srv, "topic=algo&tier=1")

	readMessage(t, conn) // battle
	readMessage(t, conn) // question

	if err := conn.WriteJSON(map[string]any{"type": "restart", "payload": map[string]any{}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	msg := readMessage(t, conn)
	if msg.Type != "battle" {
		t.Fatalf("after restart: %s", msg.Type)
	}
	var status domain.BattleStatus
	if err := json.Unmarshal(msg.Payload, &status); err != nil {
		t.Fatalf("battle payload: %v", err)
	}
	if status.Score != 0 || status.Phase != domain.PhaseQuestionActive {
		t.Fatalf("restarted status: %+v", status)
	}
	if msg = readMessage(t, conn); msg.Type != "question" {
		t.Fatalf("expected question after restart, got %s", msg.Type)
	}
}
