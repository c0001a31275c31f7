package attribution

import "testing"

func strPtr(s string) *string { return &s }

func TestResolve_CreatorWhenAllConditionsHold(t *testing.T) {
	video := VideoOwnership{OwnerUserID: "owner-1", ChannelID: strPtr("UCabc")}
	creator := &VerifiedChannel{ChannelID: "UCabc"}

	if got := Resolve(strPtr("owner-1"), video, creator); got != Creator {
		t.Errorf("expected creator, got %s", got)
	}
}

func TestResolve_UnattributedWhenContributorUnknown(t *testing.T) {
	video := VideoOwnership{OwnerUserID: "owner-1", ChannelID: strPtr("UCabc")}
	creator := &VerifiedChannel{ChannelID: "UCabc"}

	if got := Resolve(nil, video, creator); got != Unattributed {
		t.Errorf("expected unattributed, got %s", got)
	}
}

func TestResolve_CommunityWhenNoCreatorRecord(t *testing.T) {
	video := VideoOwnership{OwnerUserID: "owner-1", ChannelID: strPtr("UCabc")}

	if got := Resolve(strPtr("owner-1"), video, nil); got != Community {
		t.Errorf("expected community, got %s", got)
	}
}

func TestResolve_CommunityWhenVideoChannelUnresolved(t *testing.T) {
	video := VideoOwnership{OwnerUserID: "owner-1", ChannelID: nil}
	creator := &VerifiedChannel{ChannelID: "UCabc"}

	if got := Resolve(strPtr("owner-1"), video, creator); got != Community {
		t.Errorf("expected community, got %s", got)
	}
}

func TestResolve_CommunityWhenContributorIsNotOwner(t *testing.T) {
	video := VideoOwnership{OwnerUserID: "owner-1", ChannelID: strPtr("UCabc")}
	creator := &VerifiedChannel{ChannelID: "UCabc"}

	if got := Resolve(strPtr("someone-else"), video, creator); got != Community {
		t.Errorf("expected community, got %s", got)
	}
}

func TestResolve_CommunityWhenVerifiedChannelDiffers(t *testing.T) {
	// The owner verified a different channel than the one that published this
	// video: flipping either channel id flips the classification.
	video := VideoOwnership{OwnerUserID: "owner-1", ChannelID: strPtr("UCabc")}
	creator := &VerifiedChannel{ChannelID: "UCother"}

	if got := Resolve(strPtr("owner-1"), video, creator); got != Community {
		t.Errorf("expected community, got %s", got)
	}

	creator.ChannelID = "UCabc"
	if got := Resolve(strPtr("owner-1"), video, creator); got != Creator {
		t.Errorf("expected creator after channel ids match, got %s", got)
	}
}
