package progression

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/expresslang/express/pkg/models"
)

type fakeConversations struct {
	byCharacter map[string][]models.Conversation
	err         error
}

func (f *fakeConversations) LibraryOrdered(_ context.Context, characterID string) ([]models.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byCharacter[characterID], nil
}

type fakeCompletions struct {
	byUser map[string]map[string]bool
	err    error
}

func (f *fakeCompletions) CompletedIDs(_ context.Context, userID string) (map[string]bool, error) {
	if f.err != nil {
		return nil, f.err
	}
	set := f.byUser[userID]
	if set == nil {
		set = map[string]bool{}
	}
	return set, nil
}

type fakeUsers struct {
	byAuthID map[string]*models.User
	err      error
}

func (f *fakeUsers) ByAuthID(_ context.Context, authID string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.byAuthID[authID], nil
}

func conv(id string, day int) models.Conversation {
	return models.Conversation{ID: id, Scenario: "scenario " + id, DayNumber: day, IsLibrary: true}
}

func newTestResolver(ordered []models.Conversation, users *fakeUsers, completions *fakeCompletions) *Resolver {
	return NewResolver(
		&fakeConversations{byCharacter: map[string][]models.Conversation{"": ordered}},
		completions,
		users,
	)
}

func TestNextAnonymousGetsFirst(t *testing.T) {
	ordered := []models.Conversation{conv("c1", 1), conv("c2", 2), conv("c3", 3)}
	r := newTestResolver(ordered, &fakeUsers{}, &fakeCompletions{})

	res, err := r.Next(context.Background(), "")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.False(t, res.Empty)
	assert.Equal(t, "c1", res.Conversation.ID)
	assert.Equal(t, Progress{CurrentDay: 1, TotalDays: 3, CompletedDays: 0, IsNew: true}, res.Progress)
	assert.False(t, res.AllCompleted)
}

func TestNextSkipsCompleted(t *testing.T) {
	ordered := []models.Conversation{conv("c1", 1), conv("c2", 2), conv("c3", 3)}
	users := &fakeUsers{byAuthID: map[string]*models.User{"auth-1": {ID: "u1", AuthID: "auth-1"}}}
	completions := &fakeCompletions{byUser: map[string]map[string]bool{
		"u1": {"c1": true, "c2": true},
	}}
	r := newTestResolver(ordered, users, completions)

	res, err := r.Next(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.Equal(t, "c3", res.Conversation.ID)
	assert.Equal(t, 3, res.Progress.CurrentDay)
	assert.Equal(t, 2, res.Progress.CompletedDays)
	assert.False(t, res.Progress.IsNew)
	assert.False(t, res.AllCompleted)
}

func TestNextWrapsAroundWhenAllCompleted(t *testing.T) {
	ordered := []models.Conversation{conv("c1", 1), conv("c2", 2)}
	users := &fakeUsers{byAuthID: map[string]*models.User{"auth-1": {ID: "u1", AuthID: "auth-1"}}}
	completions := &fakeCompletions{byUser: map[string]map[string]bool{
		"u1": {"c1": true, "c2": true},
	}}
	r := newTestResolver(ordered, users, completions)

	res, err := r.Next(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.True(t, res.AllCompleted)
	assert.Equal(t, "c1", res.Conversation.ID)
	assert.Equal(t, 2, res.Progress.CompletedDays)
	assert.False(t, res.Progress.IsNew)
}

func TestNextEmptyLibrary(t *testing.T) {
	r := newTestResolver(nil, &fakeUsers{}, &fakeCompletions{})

	res, err := r.Next(context.Background(), "")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.True(t, res.Empty)
	assert.Nil(t, res.Conversation)
}

func TestNextUnknownUserTreatedAsFresh(t *testing.T) {
	ordered := []models.Conversation{conv("c1", 1), conv("c2", 2)}
	// ByAuthID returns nil for unseen subjects; that must behave like an
	// anonymous caller, not an error.
	r := newTestResolver(ordered, &fakeUsers{byAuthID: map[string]*models.User{}}, &fakeCompletions{})

	res, err := r.Next(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.Equal(t, "c1", res.Conversation.ID)
	assert.True(t, res.Progress.IsNew)
}

func TestNextRespectsCharacterFilter(t *testing.T) {
	charID := "jihoon"
	users := &fakeUsers{byAuthID: map[string]*models.User{
		"auth-1": {ID: "u1", AuthID: "auth-1", CharacterID: &charID},
	}}
	conversations := &fakeConversations{byCharacter: map[string][]models.Conversation{
		"":       {conv("g1", 1)},
		"jihoon": {conv("j1", 1), conv("j2", 2)},
	}}
	r := NewResolver(conversations, &fakeCompletions{}, users)

	res, err := r.Next(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.Equal(t, "j1", res.Conversation.ID)
	assert.Equal(t, 2, res.Progress.TotalDays)
}

func TestNextIsIdempotent(t *testing.T) {
	ordered := []models.Conversation{conv("c1", 1), conv("c2", 2), conv("c3", 3)}
	users := &fakeUsers{byAuthID: map[string]*models.User{"auth-1": {ID: "u1", AuthID: "auth-1"}}}
	completions := &fakeCompletions{byUser: map[string]map[string]bool{"u1": {"c1": true}}}
	r := newTestResolver(ordered, users, completions)

	first, err := r.Next(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}
	second, err := r.Next(context.Background(), "auth-1")
	if err != nil {
		t.Fatalf("Next returned error: %v", err)
	}

	assert.Equal(t, first.Conversation.ID, second.Conversation.ID)
	assert.Equal(t, first.Progress, second.Progress)
}

func TestNextStoreErrorSurfaces(t *testing.T) {
	conversations := &fakeConversations{err: errors.New("connection refused")}
	r := NewResolver(conversations, &fakeCompletions{}, &fakeUsers{})

	_, err := r.Next(context.Background(), "")
	if err == nil {
		t.Fatal("expected error when conversation store is unreachable")
	}
	assert.Contains(t, err.Error(), "failed to load conversations")
}
