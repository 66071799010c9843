package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/conductor/internal/apperr"
	"github.com/iliyamo/conductor/internal/model"
)

var (
	admin = Actor{ID: 1, Role: model.RoleAdmin}
	alice = Actor{ID: 2, Role: model.RoleStandard}
)

func TestAdminBypassesOwnership(t *testing.T) {
	for _, k := range []Kind{User, Task, WorkHour, Project, Client, Payment, InvoiceItem} {
		for _, a := range []Action{Read, Create, Update, Delete, ChangeRole, ListAll} {
			assert.True(t, Allowed(admin, On(k, 99), a), "%s %s", a, k)
		}
	}
}

func TestStandardUserOwnRows(t *testing.T) {
	cases := []struct {
		res    Resource
		action Action
		want   bool
	}{
		{On(User, 2), Read, true},
		{On(User, 2), Update, true},
		{On(User, 3), Read, false},
		{On(User, 2), Delete, false},
		{On(User, 0), Create, false},
		{On(User, 2), ChangeRole, false},

		{On(Task, 2), Read, true},
		{On(Task, 2), Update, true},
		{On(Task, 2), Delete, false},
		{On(Task, 3), Read, false},
		{On(Task, 0), Create, true},

		{On(WorkHour, 2), Delete, true},
		{On(WorkHour, 3), Delete, false},
		{On(WorkHour, 3), Update, false},

		{On(Project, 0), Read, true},
		{On(Project, 0), Create, false},
		{On(Client, 0), Read, true},
		{On(Client, 0), Delete, false},

		{On(Payment, 2), Read, true},
		{On(Payment, 3), Read, false},
		{On(Payment, 2), Update, false},
		{On(InvoiceItem, 2), Create, false},

		{On(WorkHour, 2), ListAll, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Allowed(alice, tc.res, tc.action), "%s %s owner=%d", tc.action, tc.res.Kind, tc.res.OwnerID)
	}
}

func TestReassignmentToAnotherUserIsDenied(t *testing.T) {
	res := Resource{Kind: WorkHour, OwnerID: 2, AssignTo: 3}
	assert.False(t, Allowed(alice, res, Update))
	res.AssignTo = 2
	assert.True(t, Allowed(alice, res, Update))
	assert.True(t, Allowed(admin, Resource{Kind: Task, OwnerID: 2, AssignTo: 7}, Update))
}

func TestAuthorizeReturnsForbidden(t *testing.T) {
	err := Authorize(alice, On(Task, 2), Delete)
	assert.ErrorIs(t, err, apperr.ErrAuthorization)
	assert.Equal(t, "authorization: You are not authorized to delete this task", err.Error())
	assert.NoError(t, Authorize(alice, On(Task, 2), Read))
}
