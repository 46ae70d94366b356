package audit

import (
	"errors"
	"strings"
	"testing"
)

func TestEvent_Validate(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  error
	}{
		{"valid", Event{Action: ActionArticlePublish, ResourceID: "1"}, nil},
		{"missing action", Event{ResourceID: "1"}, ErrEmptyAction},
		{"blank action", Event{Action: "  "}, ErrEmptyAction},
		{"detail too long", Event{Action: ActionLogin, Detail: strings.Repeat("x", MaxDetailLength+1)}, ErrDetailTooLong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.event.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}
