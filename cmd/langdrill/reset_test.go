package main

import (
	"errors"
	"reflect"
	"testing"

	"github.com/conorfennell/langdrill/internal/domain"
)

func TestResetKeys(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		all     bool
		want    []domain.Key
		wantErr error
	}{
		{"one direction", []string{"vocabulary", "production"}, false, []domain.Key{{Deck: domain.Vocabulary, Direction: domain.DirectionProduction}}, nil},
		{"whole deck", []string{"aspect"}, false, []domain.Key{{Deck: domain.Aspect, Direction: domain.DirectionImperfective}, {Deck: domain.Aspect, Direction: domain.DirectionPerfective}}, nil},
		{"unknown deck", []string{"verbs"}, false, nil, domain.ErrUnknownDeck},
		{"bad direction", []string{"declension", "production"}, false, nil, domain.ErrUnknownDirection},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resetKeys(tc.args, tc.all)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("error = %v, want %v", err, tc.wantErr)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("keys = %v, want %v", got, tc.want)
			}
		})
	}

	if got, _ := resetKeys(nil, true); len(got) != len(domain.AllKeys()) {
		t.Errorf("--all selected %d keys", len(got))
	}
	if _, err := resetKeys(nil, false); err == nil {
		t.Error("expected an error without arguments")
	}
	if _, err := resetKeys([]string{"aspect"}, true); err == nil {
		t.Error("expected an error for --all with arguments")
	}
}
