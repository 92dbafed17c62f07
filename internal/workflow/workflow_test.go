package workflow

import (
	"testing"

	"github.com/jabbar-dev/bnb-aimtech/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestValidRequestTransition(t *testing.T) {
	statuses := []model.RequestStatus{
		model.RequestPending, model.RequestApproved, model.RequestRejected, model.RequestOut, model.RequestIn,
	}
	allowed := map[[3]string]bool{
		{"approver", "pending", "approved"}: true,
		{"approver", "pending", "rejected"}: true,
		{"gate", "approved", "out"}:         true,
		{"gate", "out", "in"}:               true,
	}

	// 穷举所有执行方和状态组合,表外的组合都必须被拒绝
	count := 0
	for _, actor := range []Actor{ActorApprover, ActorGate} {
		for _, from := range statuses {
			for _, to := range statuses {
				key := [3]string{string(actor), string(from), string(to)}
				got := ValidRequestTransition(actor, from, to)
				assert.Equal(t, allowed[key], got, "ValidRequestTransition(%s, %s, %s)", actor, from, to)
				if got {
					count++
				}
			}
		}
	}
	assert.Equal(t, 4, count)
}

func TestIsRequestTarget(t *testing.T) {
	cases := []struct {
		actor Actor
		to    model.RequestStatus
		valid bool
	}{
		{ActorApprover, model.RequestApproved, true},
		{ActorApprover, model.RequestRejected, true},
		{ActorApprover, model.RequestOut, false},
		{ActorApprover, model.RequestPending, false},
		{ActorGate, model.RequestOut, true},
		{ActorGate, model.RequestIn, true},
		{ActorGate, model.RequestApproved, false},
		{ActorGate, "teleported", false},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.valid, IsRequestTarget(tt.actor, tt.to), "IsRequestTarget(%q, %q)", tt.actor, tt.to)
	}
}

func TestRequestTerminal(t *testing.T) {
	assert.True(t, RequestTerminal(model.RequestRejected))
	assert.True(t, RequestTerminal(model.RequestIn))
	assert.False(t, RequestTerminal(model.RequestPending))
	assert.False(t, RequestTerminal(model.RequestApproved))
	assert.False(t, RequestTerminal(model.RequestOut))
}

func TestValidVisitorTarget(t *testing.T) {
	cases := []struct {
		to    model.VisitorStatus
		valid bool
	}{
		{model.VisitorIn, true},
		{model.VisitorOut, true},
		{model.VisitorPending, false},
		{"gone", false},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.valid, ValidVisitorTarget(tt.to), "ValidVisitorTarget(%q)", tt.to)
	}
}

func TestValidLodgingTransition(t *testing.T) {
	cases := []struct {
		from  model.BookingStatus
		to    model.BookingStatus
		valid bool
	}{
		{model.BookingReserved, model.BookingCheckedIn, true},
		{model.BookingCheckedIn, model.BookingCheckedIn, false},
		{model.BookingCheckedOut, model.BookingCheckedIn, false},
		{model.BookingReserved, model.BookingCheckedOut, true},
		{model.BookingCheckedIn, model.BookingCheckedOut, true},
		{model.BookingCheckedOut, model.BookingCheckedOut, true},
		{model.BookingCancelled, model.BookingCheckedOut, true},
		{model.BookingReserved, model.BookingCancelled, true},
		{model.BookingCheckedIn, model.BookingCancelled, true},
		{model.BookingCheckedOut, model.BookingCancelled, false},
		{model.BookingCancelled, model.BookingCancelled, false},
		{model.BookingCancelled, model.BookingReserved, false},
		{model.BookingCheckedIn, model.BookingReserved, false},
		{model.BookingCancelled, model.BookingCheckedIn, false},
	}
	for _, tt := range cases {
		assert.Equal(t, tt.valid, ValidLodgingTransition(tt.from, tt.to), "ValidLodgingTransition(%q, %q)", tt.from, tt.to)
	}
}
