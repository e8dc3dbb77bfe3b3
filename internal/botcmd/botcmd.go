// Package botcmd exposes the watcher's Telegram command surface: /start,
// /price and /stop, guarded by the subscriber allow-list.
package botcmd

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/rs/zerolog"

	"arb-spread-alerts/internal/alerting"
	"arb-spread-alerts/internal/arb"
)

const rejectionReply = "You are not on the subscriber list for this bot."

// Handler serves one command and returns the reply text.
type Handler func(ctx context.Context, msg *models.Message) string

// Controls are the engine entry points the command surface drives. They are
// closures so the loops run under the application root context rather than
// the lifetime of a single update.
type Controls struct {
	// StartLoops idempotently starts both background loops and reports their
	// liveness by task name.
	StartLoops func() map[string]string
	// StopPoller cancels the polling loop; reports whether it was running.
	StopPoller func() bool
	// Snapshot reads the current result slot.
	Snapshot func() (arb.Result, bool)
}

// Service routes allow-listed Telegram commands to the engine.
type Service struct {
	b        *bot.Bot
	allowed  map[int64]bool
	controls Controls
	commands map[string]Handler
	logger   zerolog.Logger
}

// New connects the bot and registers the command set with Telegram.
func New(ctx context.Context, token string, subscribers []int64, controls Controls, logger zerolog.Logger) (*Service, error) {
	s := newService(subscribers, controls, logger)

	b, err := bot.New(token, bot.WithDefaultHandler(s.handler))
	if err != nil {
		return nil, fmt.Errorf("connect telegram bot: %w", err)
	}
	s.b = b

	if ok, err := b.SetMyCommands(ctx, s.commandParams()); err != nil {
		return nil, fmt.Errorf("register bot commands: %w", err)
	} else if !ok {
		return nil, fmt.Errorf("could not register bot commands")
	}

	return s, nil
}

// newService builds the routing table without a transport, for tests.
func newService(subscribers []int64, controls Controls, logger zerolog.Logger) *Service {
	allowed := make(map[int64]bool, len(subscribers))
	for _, id := range subscribers {
		allowed[id] = true
	}

	s := &Service{
		allowed:  allowed,
		controls: controls,
		logger:   logger.With().Str("component", "botcmd").Logger(),
	}
	s.commands = map[string]Handler{
		"start": s.guard(s.startCmd),
		"price": s.guard(s.priceCmd),
		"stop":  s.guard(s.stopCmd),
	}
	return s
}

// Run blocks serving updates until ctx is cancelled.
func (s *Service) Run(ctx context.Context) {
	s.b.Start(ctx)
}

// Bot returns the underlying client so alert delivery can share it.
func (s *Service) Bot() *bot.Bot {
	return s.b
}

// guard is the allow-list check composed in front of every command handler.
// Unknown chats get a rejection reply instead of reaching the engine.
func (s *Service) guard(next Handler) Handler {
	return func(ctx context.Context, msg *models.Message) string {
		if !s.allowed[msg.Chat.ID] {
			s.logger.Warn().Int64("chat_id", msg.Chat.ID).
				Str("text", msg.Text).
				Msg("command from unlisted chat rejected")
			return rejectionReply
		}
		return next(ctx, msg)
	}
}

func (s *Service) handler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	reply := s.dispatch(ctx, update.Message)
	if reply == "" {
		return
	}

	params := &bot.SendMessageParams{
		ChatID: update.Message.Chat.ID,
		Text:   reply,
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		s.logger.Error().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("command reply failed (ignored)")
	}
}

// dispatch parses "/cmd[@bot] args..." and routes to the registered handler.
// Non-command text is ignored.
func (s *Service) dispatch(ctx context.Context, msg *models.Message) string {
	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") {
		return ""
	}

	fields := strings.Fields(text[1:])
	if len(fields) == 0 {
		return ""
	}
	name := fields[0]
	if at := strings.IndexByte(name, '@'); at >= 0 {
		name = name[:at]
	}

	handler, ok := s.commands[strings.ToLower(name)]
	if !ok {
		return ""
	}
	return handler(ctx, msg)
}

func (s *Service) startCmd(ctx context.Context, _ *models.Message) string {
	liveness := s.controls.StartLoops()

	var sb strings.Builder
	sb.WriteString("Monitoring is on.\n")
	names := make([]string, 0, len(liveness))
	for name := range liveness {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "%s: %s\n", name, liveness[name])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (s *Service) priceCmd(ctx context.Context, _ *models.Message) string {
	res, ok := s.controls.Snapshot()
	if !ok {
		return alerting.UnavailableMessage
	}
	return alerting.PriceMessage(res)
}

func (s *Service) stopCmd(ctx context.Context, _ *models.Message) string {
	if s.controls.StopPoller() {
		return "Polling stopped."
	}
	return "The poller is not running."
}

func (s *Service) commandParams() *bot.SetMyCommandsParams {
	return &bot.SetMyCommandsParams{
		Commands: []models.BotCommand{
			{Command: "start", Description: "Start the monitoring loops"},
			{Command: "price", Description: "Show the current round-trip yields"},
			{Command: "stop", Description: "Stop the polling loop"},
		},
	}
}
