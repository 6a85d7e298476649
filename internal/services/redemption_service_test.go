package services

import (
	"sync"
	"testing"

	"accreditation-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedemptionFixture(t *testing.T) (*fakeStore, RedemptionService, *models.User) {
	t.Helper()
	store := newFakeStore()
	church := seedChurch(store, 50)
	cfg := newTestConfig(t)
	memberSvc := NewMemberService(store, NewTicketIssuer(cfg), cfg)

	member, err := memberSvc.CreateMember(adminPrincipal(), CreateMemberRequest{
		ChurchID: church.ID.String(),
		RUT:      "111111-1",
		FullName: "Hungry Attendee",
		Email:    "hungry@example.com",
	})
	require.NoError(t, err)

	return store, NewRedemptionService(store, cfg), member
}

func kitchenPrincipal() *Principal {
	return principalWithRole(models.RoleCocina, nil)
}

func TestRedeem_Succeeds(t *testing.T) {
	_, svc, member := newRedemptionFixture(t)
	actor := kitchenPrincipal()

	ticket, err := svc.Redeem(actor, member.Tickets[0].QRCode)
	require.NoError(t, err)

	assert.True(t, ticket.IsUsed)
	require.NotNil(t, ticket.UsedAt)
	require.NotNil(t, ticket.UsedBy)
	assert.Equal(t, actor.UserID, *ticket.UsedBy)
}

func TestRedeem_UnknownCode(t *testing.T) {
	_, svc, _ := newRedemptionFixture(t)

	_, err := svc.Redeem(kitchenPrincipal(), "no-such-code")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidCode, ErrorCodeOf(err))
}

func TestRedeem_SecondScanRefused(t *testing.T) {
	_, svc, member := newRedemptionFixture(t)
	code := member.Tickets[0].QRCode

	first, err := svc.Redeem(kitchenPrincipal(), code)
	require.NoError(t, err)
	firstUsedAt := *first.UsedAt

	_, err = svc.Redeem(kitchenPrincipal(), code)
	require.Error(t, err)
	assert.Equal(t, ErrAlreadyRedeemed, ErrorCodeOf(err))

	// used_at must be untouched by the refused scan.
	status, err := svc.TicketStatus(code)
	require.NoError(t, err)
	require.NotNil(t, status.UsedAt)
	assert.Equal(t, firstUsedAt, *status.UsedAt)
}

func TestRedeem_AtMostOnceUnderConcurrency(t *testing.T) {
	_, svc, member := newRedemptionFixture(t)
	code := member.Tickets[0].QRCode

	const scanners = 32
	var wg sync.WaitGroup
	errs := make([]error, scanners)

	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Redeem(kitchenPrincipal(), code)
		}(i)
	}
	wg.Wait()

	var successes, refused int
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case ErrorCodeOf(err) == ErrAlreadyRedeemed:
			refused++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	assert.Equal(t, 1, successes, "exactly one scanner may win")
	assert.Equal(t, scanners-1, refused)
}

func TestRedeem_RoleGating(t *testing.T) {
	_, svc, member := newRedemptionFixture(t)
	code := member.Tickets[0].QRCode

	for _, role := range []models.Role{models.RoleMonitor, models.RoleAttendee} {
		_, err := svc.Redeem(principalWithRole(role, nil), code)
		require.Error(t, err, "role %s", role)
		assert.Equal(t, ErrForbidden, ErrorCodeOf(err))
	}

	// The refused attempts must not have consumed the ticket.
	status, err := svc.TicketStatus(code)
	require.NoError(t, err)
	assert.False(t, status.IsUsed)

	_, err = svc.Redeem(adminPrincipal(), code)
	assert.NoError(t, err, "admins may redeem")
}

func TestRedeem_MonotonicOnceUsed(t *testing.T) {
	_, svc, member := newRedemptionFixture(t)
	code := member.Tickets[0].QRCode

	_, err := svc.Redeem(kitchenPrincipal(), code)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := svc.Redeem(kitchenPrincipal(), code)
		require.Error(t, err)

		status, err := svc.TicketStatus(code)
		require.NoError(t, err)
		assert.True(t, status.IsUsed, "is_used must never flip back")
	}
}

func TestMealStats_DerivedCounts(t *testing.T) {
	_, svc, member := newRedemptionFixture(t)

	var lunchCode string
	for _, ticket := range member.Tickets {
		if ticket.TicketType == "lunch" {
			lunchCode = ticket.QRCode
		}
	}
	require.NotEmpty(t, lunchCode)

	_, err := svc.Redeem(kitchenPrincipal(), lunchCode)
	require.NoError(t, err)

	stats, err := svc.MealStats()
	require.NoError(t, err)
	require.Len(t, stats, 2)

	byType := map[string]MealTypeStats{}
	for _, s := range stats {
		byType[s.TicketType] = s
	}
	assert.EqualValues(t, 1, byType["lunch"].Total)
	assert.EqualValues(t, 1, byType["lunch"].Used)
	assert.EqualValues(t, 0, byType["lunch"].Remaining)
	assert.EqualValues(t, 1, byType["once"].Total)
	assert.EqualValues(t, 0, byType["once"].Used)
	assert.EqualValues(t, 1, byType["once"].Remaining)
}

func TestTicketStatus_UnknownCode(t *testing.T) {
	_, svc, _ := newRedemptionFixture(t)

	_, err := svc.TicketStatus("missing")
	require.Error(t, err)
	assert.Equal(t, ErrInvalidCode, ErrorCodeOf(err))
}
