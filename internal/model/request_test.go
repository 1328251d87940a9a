package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransition(t *testing.T) {
	cases := []struct {
		name string
		kind Kind
		from Status
		d    Decision
		want Status
		err  error
	}{
		{"funding accept", KindFunding, StatusInvestmentPending, DecisionAccept, StatusAccepted, nil},
		{"funding reject", KindFunding, StatusInvestmentPending, DecisionReject, StatusRejected, nil},
		{"mentorship accept", KindMentorship, StatusMentorPending, DecisionAccept, StatusAccepted, nil},
		{"accepted is final", KindFunding, StatusAccepted, DecisionReject, "", ErrAlreadyDecided},
		{"rejected is final", KindMentorship, StatusRejected, DecisionAccept, "", ErrAlreadyDecided},
		{"wrong pending status", KindFunding, StatusMentorPending, DecisionAccept, "", ErrInvalidTransition},
		{"unknown decision", KindFunding, StatusInvestmentPending, Decision("maybe"), "", ErrInvalidTransition},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Transition(tc.kind, tc.from, tc.d)
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestKindForRole(t *testing.T) {
	k, ok := KindForRole(RoleInvestor)
	require.True(t, ok)
	assert.Equal(t, KindFunding, k)
	assert.Equal(t, RoleInvestor, k.SupporterRole())
	assert.Equal(t, StatusInvestmentPending, k.PendingStatus())

	k, ok = KindForRole(RoleMentor)
	require.True(t, ok)
	assert.Equal(t, KindMentorship, k)
	assert.Equal(t, StatusMentorPending, k.PendingStatus())

	_, ok = KindForRole(RoleFounder)
	assert.False(t, ok)
}

func TestOldestPendingPerPair(t *testing.T) {
	reqs := []Request{
		{ID: 7, Kind: KindFunding, FounderID: 1, SupportID: 9, Status: StatusInvestmentPending},
		{ID: 3, Kind: KindFunding, FounderID: 1, SupportID: 9, Status: StatusAccepted},
		{ID: 5, Kind: KindFunding, FounderID: 1, SupportID: 9, Status: StatusInvestmentPending},
		{ID: 6, Kind: KindFunding, FounderID: 2, SupportID: 9, Status: StatusInvestmentPending},
		{ID: 8, Kind: KindMentorship, FounderID: 1, SupportID: 9, Status: StatusMentorPending},
		{ID: 9, Kind: KindFunding, FounderID: 2, SupportID: 9, Status: StatusRejected},
	}
	got := OldestPendingPerPair(reqs)
	ids := make([]uint64, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	assert.Equal(t, []uint64{5, 6, 8}, ids)
}

func TestOldestPendingPerPairMentorship(t *testing.T) {
	reqs := []Request{
		{ID: 12, Kind: KindMentorship, FounderID: 4, SupportID: 2, Status: StatusMentorPending},
		{ID: 10, Kind: KindMentorship, FounderID: 4, SupportID: 2, Status: StatusMentorPending},
		{ID: 11, Kind: KindMentorship, FounderID: 4, SupportID: 2, Status: StatusRejected},
	}
	got := OldestPendingPerPair(reqs)
	require.Len(t, got, 1)
	assert.Equal(t, uint64(10), got[0].ID)
}

func TestParseRoleAndStage(t *testing.T) {
	r, ok := ParseRole(" founder ")
	require.True(t, ok)
	assert.Equal(t, RoleFounder, r)
	assert.True(t, r.HasProfile())
	assert.False(t, RoleAdmin.HasProfile())
	_, ok = ParseRole("owner")
	assert.False(t, ok)

	s, ok := ParseStage("mvp")
	require.True(t, ok)
	assert.Equal(t, StageMVP, s)
	_, ok = ParseStage("growth")
	assert.False(t, ok)
}
