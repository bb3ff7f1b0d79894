package content

// Auto-moderation thresholds. The ratio must be exceeded strictly; the
// approval revocation differs from the moderation flag only by requiring a
// larger vote volume.
const (
	moderationMinVotes  = 5
	unapprovalMinVotes  = 10
	downvoteRatioCutoff = 0.7
)

// ModerationOutcome is the output of the moderation policy. The policy only
// ever raises flags; it never clears IsModerated and never re-approves.
type ModerationOutcome struct {
	Moderate       bool
	RevokeApproval bool
}

// EvaluateModeration maps a vote aggregate to moderation flags.
func EvaluateModeration(upvotes, downvotes int) ModerationOutcome {
	var out ModerationOutcome

	total := upvotes + downvotes
	if total == 0 {
		return out
	}
	ratio := float64(downvotes) / float64(total)
	if ratio <= downvoteRatioCutoff {
		return out
	}

	if total >= moderationMinVotes {
		out.Moderate = true
	}
	if total >= unapprovalMinVotes {
		out.RevokeApproval = true
	}
	return out
}
