// Package attribution classifies a citation as creator, community, or
// unattributed. The classification is derived at read time and never stored,
// so revoking a channel verification retroactively changes how existing
// citations are labelled.
package attribution

// Kind is the citation classification.
type Kind string

const (
	// Unattributed means the citation has no known contributor.
	Unattributed Kind = "unattributed"
	// Creator means the citation was added by the verified owner of the
	// channel that published the video.
	Creator Kind = "creator"
	// Community means the citation was added by a known user who is not the
	// verified creator of this specific video's channel.
	Community Kind = "community"
)

// VideoOwnership is the slice of a video record the resolver needs.
type VideoOwnership struct {
	OwnerUserID string
	// ChannelID is the channel that published the video, nil until the lazy
	// backfill has resolved it.
	ChannelID *string
}

// VerifiedChannel is the slice of a creator record the resolver needs.
type VerifiedChannel struct {
	ChannelID string
}

// Resolve classifies a citation. A citation counts as a creator source only
// when the contributor is literally the video's owner AND the owner's
// verified channel matches the channel that published this video.
// Verification is per user, not per video: an owner who verified a different
// channel than the one that published the video stays "community".
func Resolve(contributedBy *string, video VideoOwnership, creator *VerifiedChannel) Kind {
	if contributedBy == nil {
		return Unattributed
	}

	if creator == nil || video.ChannelID == nil {
		return Community
	}
	if *contributedBy != video.OwnerUserID {
		return Community
	}
	if *video.ChannelID != creator.ChannelID {
		return Community
	}
	return Creator
}
