package botcmd

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"arb-spread-alerts/internal/alerting"
	"arb-spread-alerts/internal/arb"
)

func message(chatID int64, text string) *models.Message {
	return &models.Message{
		Chat: models.Chat{ID: chatID},
		Text: text,
	}
}

func testService(controls Controls) *Service {
	return newService([]int64{100, 200}, controls, zerolog.Nop())
}

func TestGuardRejectsUnlistedChat(t *testing.T) {
	started := false
	s := testService(Controls{
		StartLoops: func() map[string]string {
			started = true
			return nil
		},
	})

	reply := s.dispatch(context.Background(), message(999, "/start"))
	if reply != rejectionReply {
		t.Fatalf("unlisted chat must get the rejection reply, got %q", reply)
	}
	if started {
		t.Fatal("guard must stop the command before the engine")
	}
}

func TestStartReportsLiveness(t *testing.T) {
	s := testService(Controls{
		StartLoops: func() map[string]string {
			return map[string]string{"poller": "running", "hourly-alert": "running"}
		},
	})

	reply := s.dispatch(context.Background(), message(100, "/start"))
	if !strings.Contains(reply, "poller: running") || !strings.Contains(reply, "hourly-alert: running") {
		t.Fatalf("start reply must report loop liveness: %q", reply)
	}
}

func TestPriceUnavailableBeforeFirstCycle(t *testing.T) {
	s := testService(Controls{
		Snapshot: func() (arb.Result, bool) { return arb.Result{}, false },
	})

	reply := s.dispatch(context.Background(), message(100, "/price"))
	if reply != alerting.UnavailableMessage {
		t.Fatalf("empty store must reply unavailable, got %q", reply)
	}
}

func TestPriceReturnsSnapshot(t *testing.T) {
	res := arb.Result{
		BaseToModeYield: decimal.RequireFromString("0.42"),
		ModeToBaseYield: decimal.RequireFromString("-0.10"),
		ComputedAt:      time.Now(),
	}
	s := testService(Controls{
		Snapshot: func() (arb.Result, bool) { return res, true },
	})

	reply := s.dispatch(context.Background(), message(200, "/price"))
	if !strings.Contains(reply, "0.42") || !strings.Contains(reply, "-0.10") {
		t.Fatalf("price reply must carry both yields: %q", reply)
	}
}

func TestStopCommand(t *testing.T) {
	running := true
	s := testService(Controls{
		StopPoller: func() bool {
			was := running
			running = false
			return was
		},
	})

	if reply := s.dispatch(context.Background(), message(100, "/stop")); !strings.Contains(reply, "stopped") {
		t.Fatalf("stop should confirm: %q", reply)
	}
	if reply := s.dispatch(context.Background(), message(100, "/stop")); !strings.Contains(reply, "not running") {
		t.Fatalf("second stop should report not running: %q", reply)
	}
}

func TestDispatchIgnoresPlainText(t *testing.T) {
	s := testService(Controls{})
	if reply := s.dispatch(context.Background(), message(100, "hello there")); reply != "" {
		t.Fatalf("plain text must be ignored, got %q", reply)
	}
	if reply := s.dispatch(context.Background(), message(100, "/unknown")); reply != "" {
		t.Fatalf("unknown command must be ignored, got %q", reply)
	}
}

func TestDispatchStripsBotSuffix(t *testing.T) {
	s := testService(Controls{
		Snapshot: func() (arb.Result, bool) { return arb.Result{}, false },
	})
	if reply := s.dispatch(context.Background(), message(100, "/price@arbwatcher_bot")); reply != alerting.UnavailableMessage {
		t.Fatalf("command with bot suffix must route, got %q", reply)
	}
}
