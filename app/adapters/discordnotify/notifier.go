// Package discordnotify announces matches on Discord: a thread per match in
// the region's channel, a score prompt inside it, and a result summary on
// resolution.
package discordnotify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"golang.org/x/time/rate"

	matchservice "github.com/circuit-league/matchmaker/app/modules/match/application"
	matchdb "github.com/circuit-league/matchmaker/app/modules/match/infrastructure/repositories"
	userdb "github.com/circuit-league/matchmaker/app/modules/user/infrastructure/repositories"
	"github.com/circuit-league/matchmaker/app/shared/attr"
	sharedtypes "github.com/circuit-league/matchmaker/app/shared/types"
)

// ErrNotificationFailed wraps any Discord API failure so callers can treat
// the whole adapter as one fallible dependency.
var ErrNotificationFailed = errors.New("discord notification failed")

const threadArchiveMinutes = 1440

// DiscordNotifier implements matchservice.Notifier over a discordgo session.
type DiscordNotifier struct {
	session  *discordgo.Session
	channels map[sharedtypes.Region]string
	limiter  *rate.Limiter
	logger   *slog.Logger
}

// New builds the notifier. The limiter smooths bursts of match formations
// under Discord's per-route limits; discordgo handles the hard 429s itself.
func New(session *discordgo.Session, channels map[sharedtypes.Region]string, logger *slog.Logger) *DiscordNotifier {
	return &DiscordNotifier{
		session:  session,
		channels: channels,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 5),
		logger:   logger,
	}
}

var _ matchservice.Notifier = (*DiscordNotifier)(nil)

// CreateMatchChannel spawns the match thread and score prompt, returning both
// ids.
func (n *DiscordNotifier) CreateMatchChannel(ctx context.Context, match *matchdb.Match) (string, string, error) {
	channelID, ok := n.channels[match.Region]
	if !ok {
		return "", "", fmt.Errorf("%w: no channel configured for region %q", ErrNotificationFailed, match.Region)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	thread, err := n.session.ThreadStart(channelID, fmt.Sprintf("Match #%d", match.ID), discordgo.ChannelTypeGuildPublicThread, threadArchiveMinutes)
	if err != nil {
		return "", "", fmt.Errorf("%w: starting thread: %v", ErrNotificationFailed, err)
	}

	if err := n.limiter.Wait(ctx); err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	prompt, err := n.session.ChannelMessageSend(thread.ID, scorePrompt(match))
	if err != nil {
		return "", "", fmt.Errorf("%w: posting score prompt: %v", ErrNotificationFailed, err)
	}

	n.logger.InfoContext(ctx, "Match thread created",
		attr.MatchID("match_id", match.ID),
		attr.Region("region", match.Region),
		attr.String("thread_id", thread.ID),
	)
	return thread.ID, prompt.ID, nil
}

// PostResult posts the final summary into the match thread.
func (n *DiscordNotifier) PostResult(ctx context.Context, match *matchdb.Match, changes []userdb.RatingChange) error {
	if match.ThreadID == "" {
		return fmt.Errorf("%w: match %d has no thread", ErrNotificationFailed, match.ID)
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}
	if _, err := n.session.ChannelMessageSend(match.ThreadID, resultSummary(match, changes)); err != nil {
		return fmt.Errorf("%w: posting result: %v", ErrNotificationFailed, err)
	}
	return nil
}

func scorePrompt(match *matchdb.Match) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Match #%d** (%s)\n", match.ID, match.Region)
	b.WriteString("Team 1: ")
	b.WriteString(mentions(match.TeamOne))
	b.WriteString("\nTeam 2: ")
	b.WriteString(mentions(match.TeamTwo))
	b.WriteString("\n\nReport your team's score here when the game ends.")
	return b.String()
}

func resultSummary(match *matchdb.Match, changes []userdb.RatingChange) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Match #%d final**\n", match.ID)
	fmt.Fprintf(&b, "Team 1: %d | Team 2: %d\n",
		match.Scores[matchdb.ScoreKey(sharedtypes.TeamOne)],
		match.Scores[matchdb.ScoreKey(sharedtypes.TeamTwo)],
	)
	if len(changes) == 0 {
		b.WriteString("Draw, no trophy changes.")
		return b.String()
	}
	for _, change := range changes {
		fmt.Fprintf(&b, "<@%d>: %+d trophies\n", change.UserID, change.Delta)
	}
	return strings.TrimRight(b.String(), "\n")
}

func mentions(ids []sharedtypes.UserID) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("<@%d>", id)
	}
	return strings.Join(parts, " ")
}
