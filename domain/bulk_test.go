package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkIDsUnmarshal(t *testing.T) {
	tests := []struct {
		name string
		body string
		want BulkIDs
	}{
		{"comma separated string", `{"ids":"3, 1,3,,2"}`, BulkIDs{3, 1, 2}},
		{"mixed array", `{"ids":[1,"2",null," 4 ",1]}`, BulkIDs{1, 2, 4}},
		{"null", `{"ids":null}`, BulkIDs{}},
		{"missing", `{}`, nil},
		{"empty string", `{"ids":""}`, BulkIDs{}},
		{"single number", `{"ids":9}`, BulkIDs{9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req BulkRequest
			require.NoError(t, json.Unmarshal([]byte(tt.body), &req))
			assert.Equal(t, tt.want, req.IDs)
		})
	}
}

func TestBulkIDsRejectsGarbage(t *testing.T) {
	for _, body := range []string{`{"ids":"1,abc"}`, `{"ids":[0]}`, `{"ids":[-1]}`} {
		var req BulkRequest
		err := json.Unmarshal([]byte(body), &req)
		require.Error(t, err, body)
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestBulkIDsWithout(t *testing.T) {
	ids, found := BulkIDs{1, 2, 3}.Without(2)
	assert.True(t, found)
	assert.Equal(t, BulkIDs{1, 3}, ids)

	ids, found = BulkIDs{1, 3}.Without(2)
	assert.False(t, found)
	assert.Equal(t, BulkIDs{1, 3}, ids)
}

func TestSummarizeBulk(t *testing.T) {
	tests := []struct {
		name    string
		entity  BulkEntity
		action  BulkAction
		outcome BulkOutcome
		success bool
		message string
	}{
		{
			name: "nothing selected", entity: BulkEntityRole, action: BulkActionDelete,
			outcome: BulkOutcome{},
			message: "No roles selected for deletion.",
		},
		{
			name: "one deleted", entity: BulkEntityRole, action: BulkActionDelete,
			outcome: BulkOutcome{Requested: 1, Affected: 1},
			success: true, message: "Role deleted successfully.",
		},
		{
			name: "many restored", entity: BulkEntityUser, action: BulkActionRestore,
			outcome: BulkOutcome{Requested: 3, Affected: 3},
			success: true, message: "`3` users restored successfully.",
		},
		{
			name: "one protected", entity: BulkEntityPermission, action: BulkActionDelete,
			outcome: BulkOutcome{Requested: 2, Affected: 1, Protected: []string{"manage users"}},
			message: "The permission `manage users` is protected and cannot be deleted.",
		},
		{
			name: "many protected", entity: BulkEntityRole, action: BulkActionDelete,
			outcome: BulkOutcome{Requested: 2, Protected: []string{"super-admin", "admin"}},
			message: "The roles `super-admin`, `admin` are protected and cannot be deleted.",
		},
		{
			name: "none resolved", entity: BulkEntityRole, action: BulkActionDelete,
			outcome: BulkOutcome{Requested: 2},
			success: true, message: "`0` roles deleted successfully.",
		},
		{
			name: "self excluded", entity: BulkEntityUser, action: BulkActionForceDelete,
			outcome: BulkOutcome{Requested: 2, Affected: 1, SelfExcluded: true},
			message: "You cannot permanently delete yourself.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := SummarizeBulk(tt.entity, tt.action, tt.outcome)
			assert.Equal(t, tt.success, res.Success)
			assert.Equal(t, tt.message, res.Message)
			assert.Equal(t, tt.outcome.Affected, res.Affected)
		})
	}
}
