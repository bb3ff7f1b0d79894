package content

import "testing"

func TestEvaluateModeration(t *testing.T) {
	tests := []struct {
		name               string
		upvotes, downvotes int
		want               ModerationOutcome
	}{
		{name: "no votes", upvotes: 0, downvotes: 0, want: ModerationOutcome{}},
		{name: "upvotes only", upvotes: 12, downvotes: 0, want: ModerationOutcome{}},
		{name: "below volume threshold", upvotes: 0, downvotes: 4, want: ModerationOutcome{}},
		{name: "ratio at boundary not flagged", upvotes: 3, downvotes: 7, want: ModerationOutcome{}},
		{name: "moderated only", upvotes: 0, downvotes: 5, want: ModerationOutcome{Moderate: true}},
		{name: "4 up 6 down stays clean", upvotes: 4, downvotes: 6, want: ModerationOutcome{}},
		{name: "2 up 8 down flags both", upvotes: 2, downvotes: 8, want: ModerationOutcome{Moderate: true, RevokeApproval: true}},
		{name: "heavy downvote storm", upvotes: 1, downvotes: 49, want: ModerationOutcome{Moderate: true, RevokeApproval: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EvaluateModeration(tt.upvotes, tt.downvotes); got != tt.want {
				t.Errorf("EvaluateModeration(%d, %d) = %+v, want %+v", tt.upvotes, tt.downvotes, got, tt.want)
			}
		})
	}
}
