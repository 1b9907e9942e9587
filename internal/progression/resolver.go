// Package progression decides which library conversation a user should see
// next. The resolver is a pure function of the ordered conversation set and
// the user's completion set; it performs no writes of its own.
package progression

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/expresslang/express/pkg/models"
)

// ConversationSource lists library conversations in progression order:
// day_number ascending, id ascending on ties. An empty characterID means no
// character filter.
type ConversationSource interface {
	LibraryOrdered(ctx context.Context, characterID string) ([]models.Conversation, error)
}

// CompletionSource reports which conversations a user has completed. The
// ledger keeps at most one row per (user, conversation) pair, so the
// returned set needs no deduplication here.
type CompletionSource interface {
	CompletedIDs(ctx context.Context, userID string) (map[string]bool, error)
}

// UserSource resolves an identity provider subject to our user record.
// Implementations return (nil, nil) when no user exists yet; the resolver
// treats that the same as a user with zero completions.
type UserSource interface {
	ByAuthID(ctx context.Context, authID string) (*models.User, error)
}

// Progress describes where the served conversation sits in the track.
type Progress struct {
	CurrentDay    int  `json:"current_day"`
	TotalDays     int  `json:"total_days"`
	CompletedDays int  `json:"completed_days"`
	IsNew         bool `json:"is_new"`
}

// NextResult is the resolver outcome. Exactly one of these shapes holds:
// Empty is true and Conversation is nil, or Conversation is set with its
// Progress (AllCompleted marks the wraparound case).
type NextResult struct {
	Conversation *models.Conversation `json:"conversation"`
	Progress     Progress             `json:"progress"`
	AllCompleted bool                 `json:"all_completed"`
	Empty        bool                 `json:"-"`
}

// Resolver computes the next conversation for a user.
type Resolver struct {
	conversations ConversationSource
	completions   CompletionSource
	users         UserSource
}

// NewResolver creates a Resolver over the given sources.
func NewResolver(conversations ConversationSource, completions CompletionSource, users UserSource) *Resolver {
	return &Resolver{
		conversations: conversations,
		completions:   completions,
		users:         users,
	}
}

// Next picks the first conversation, in store order, that the user has not
// completed. authID may be empty for anonymous callers, who always get the
// first conversation. When every conversation is completed the first one is
// served again with AllCompleted set.
func (r *Resolver) Next(ctx context.Context, authID string) (NextResult, error) {
	characterID := ""
	var user *models.User

	if authID != "" {
		var err error
		user, err = r.users.ByAuthID(ctx, authID)
		if err != nil {
			return NextResult{}, fmt.Errorf("failed to resolve user: %w", err)
		}
		if user != nil && user.CharacterID != nil {
			characterID = *user.CharacterID
		}
	}

	ordered, err := r.conversations.LibraryOrdered(ctx, characterID)
	if err != nil {
		return NextResult{}, fmt.Errorf("failed to load conversations: %w", err)
	}
	if len(ordered) == 0 {
		return NextResult{Empty: true}, nil
	}

	if user == nil {
		first := ordered[0]
		return NextResult{
			Conversation: &first,
			Progress: Progress{
				CurrentDay: first.DayNumber,
				TotalDays:  len(ordered),
				IsNew:      true,
			},
		}, nil
	}

	completed, err := r.completions.CompletedIDs(ctx, user.ID)
	if err != nil {
		return NextResult{}, fmt.Errorf("failed to load completions: %w", err)
	}

	for _, conv := range ordered {
		if completed[conv.ID] {
			continue
		}
		conv := conv
		return NextResult{
			Conversation: &conv,
			Progress: Progress{
				CurrentDay:    conv.DayNumber,
				TotalDays:     len(ordered),
				CompletedDays: len(completed),
				IsNew:         len(completed) == 0,
			},
		}, nil
	}

	// Everything done; wrap around to the start rather than erroring.
	log.Debug().Str("user_id", user.ID).Int("total", len(ordered)).Msg("all conversations completed, wrapping around")
	first := ordered[0]
	return NextResult{
		Conversation: &first,
		Progress: Progress{
			CurrentDay:    first.DayNumber,
			TotalDays:     len(ordered),
			CompletedDays: len(completed),
		},
		AllCompleted: true,
	}, nil
}
