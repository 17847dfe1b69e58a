package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Key prefixes for different data types
const (
	prefixState = "s:" // UI state
)

// State keys
const (
	keySelectedInbox         = prefixState + "selectedInbox"
	keyInboxList             = prefixState + "inboxList"
	keySelectedNotifications = prefixState + "selectedNotificationList"
)

// InboxListing is an inbox the user has opened.
type InboxListing struct {
	URL  string `json:"url"`
	Name string `json:"name"`
}

// State is the typed view of the persisted UI state. Setting an empty
// value removes the key, so an unset and a cleared value read the same.
type State struct {
	backend StorageBackend
}

// NewState creates a State on an initialized backend.
func NewState(backend StorageBackend) *State {
	return &State{backend: backend}
}

// SelectedInbox returns the selected inbox, or nil when none is selected.
func (s *State) SelectedInbox(ctx context.Context) (*InboxListing, error) {
	var inbox InboxListing
	ok, err := s.get(ctx, keySelectedInbox, &inbox)
	if err != nil || !ok {
		return nil, err
	}
	return &inbox, nil
}

// SetSelectedInbox selects inbox. A nil inbox clears the selection.
func (s *State) SetSelectedInbox(ctx context.Context, inbox *InboxListing) error {
	if inbox == nil {
		return s.backend.Delete(ctx, keySelectedInbox)
	}
	return s.put(ctx, keySelectedInbox, inbox)
}

// InboxList returns the known inboxes.
func (s *State) InboxList(ctx context.Context) ([]InboxListing, error) {
	var list []InboxListing
	if _, err := s.get(ctx, keyInboxList, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// SetInboxList replaces the known inboxes.
func (s *State) SetInboxList(ctx context.Context, list []InboxListing) error {
	if len(list) == 0 {
		return s.backend.Delete(ctx, keyInboxList)
	}
	return s.put(ctx, keyInboxList, list)
}

// RememberInbox adds inbox to the known inboxes, replacing an entry with
// the same URL, and selects it.
func (s *State) RememberInbox(ctx context.Context, inbox InboxListing) error {
	list, err := s.InboxList(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range list {
		if list[i].URL == inbox.URL {
			list[i] = inbox
			replaced = true
		}
	}
	if !replaced {
		list = append(list, inbox)
	}

	if err := s.SetInboxList(ctx, list); err != nil {
		return err
	}
	return s.SetSelectedInbox(ctx, &inbox)
}

// SelectedNotifications returns the URLs of the selected notifications.
func (s *State) SelectedNotifications(ctx context.Context) ([]string, error) {
	var urls []string
	if _, err := s.get(ctx, keySelectedNotifications, &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// SetSelectedNotifications replaces the selected notifications.
func (s *State) SetSelectedNotifications(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return s.backend.Delete(ctx, keySelectedNotifications)
	}
	return s.put(ctx, keySelectedNotifications, urls)
}

// Clear removes all persisted state.
func (s *State) Clear(ctx context.Context) error {
	keys, err := s.backend.Keys(ctx, prefixState)
	if err != nil {
		return err
	}
	for _, k := range keys {
		if err := s.backend.Delete(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

func (s *State) get(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decoding %s: %w", key, err)
	}
	return true, nil
}

func (s *State) put(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	return s.backend.Put(ctx, key, data)
}
