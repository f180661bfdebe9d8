package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// BulkIDs is the normalized id list of a bulk request. It unmarshals from
// either a comma separated string or an array whose entries may be strings,
// numbers or null.
type BulkIDs []uint

func (b *BulkIDs) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*b = BulkIDs{}
		return nil
	}

	var raw []string
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		raw = strings.Split(s, ",")
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) == 0 || bytes.Equal(item, []byte("null")) {
				continue
			}
			if item[0] == '"' {
				var s string
				if err := json.Unmarshal(item, &s); err != nil {
					return err
				}
				raw = append(raw, s)
				continue
			}
			raw = append(raw, string(item))
		}
	default:
		raw = []string{string(data)}
	}

	ids, err := parseIDs(raw)
	if err != nil {
		return err
	}
	*b = ids
	return nil
}

// ParseBulkIDs normalizes a comma separated id string.
func ParseBulkIDs(s string) (BulkIDs, error) {
	return parseIDs(strings.Split(s, ","))
}

func parseIDs(raw []string) (BulkIDs, error) {
	ids := make(BulkIDs, 0, len(raw))
	seen := make(map[uint]struct{}, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" || r == "null" {
			continue
		}
		n, err := strconv.ParseUint(r, 10, 64)
		if err != nil || n == 0 {
			return nil, FieldError("ids", fmt.Sprintf("The id %q is invalid.", r))
		}
		id := uint(n)
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func (b BulkIDs) Without(id uint) (BulkIDs, bool) {
	out := make(BulkIDs, 0, len(b))
	found := false
	for _, v := range b {
		if v == id {
			found = true
			continue
		}
		out = append(out, v)
	}
	return out, found
}

type BulkRequest struct {
	IDs BulkIDs `json:"ids"`
}

type BulkEntity struct {
	Singular string
	Plural   string
}

var (
	BulkEntityRole       = BulkEntity{Singular: "role", Plural: "roles"}
	BulkEntityPermission = BulkEntity{Singular: "permission", Plural: "permissions"}
	BulkEntityUser       = BulkEntity{Singular: "user", Plural: "users"}
	BulkEntityToken      = BulkEntity{Singular: "token", Plural: "tokens"}
)

type BulkAction struct {
	Name string
	Noun string
	Past string
}

var (
	BulkActionDelete      = BulkAction{Name: "delete", Noun: "deletion", Past: "deleted"}
	BulkActionRestore     = BulkAction{Name: "restore", Noun: "restoration", Past: "restored"}
	BulkActionForceDelete = BulkAction{Name: "force_delete", Noun: "permanent deletion", Past: "permanently deleted"}
)

// BulkOutcome is what a bulk operation did, before it is worded.
type BulkOutcome struct {
	Requested    int
	Affected     int
	Protected    []string
	SelfExcluded bool
}

type BulkResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Affected int    `json:"affected"`
}

// SummarizeBulk words a bulk outcome. Protected or self excluded entries make
// the result a failure even when other rows were committed. Ids that resolved
// to nothing are not an error; the count wording reports zero.
func SummarizeBulk(entity BulkEntity, action BulkAction, outcome BulkOutcome) *BulkResult {
	res := &BulkResult{Affected: outcome.Affected}

	switch {
	case outcome.Requested == 0:
		res.Message = fmt.Sprintf("No %s selected for %s.", entity.Plural, action.Noun)
	case outcome.SelfExcluded:
		res.Message = fmt.Sprintf("You cannot %s yourself.", selfVerb(action))
	case len(outcome.Protected) == 1:
		res.Message = fmt.Sprintf("The %s %s is protected and cannot be %s.",
			entity.Singular, JoinQuoted(outcome.Protected), action.Past)
	case len(outcome.Protected) > 1:
		res.Message = fmt.Sprintf("The %s %s are protected and cannot be %s.",
			entity.Plural, JoinQuoted(outcome.Protected), action.Past)
	case outcome.Affected == 1:
		res.Success = true
		res.Message = fmt.Sprintf("%s %s successfully.", capitalize(entity.Singular), action.Past)
	default:
		res.Success = true
		res.Message = fmt.Sprintf("`%d` %s %s successfully.", outcome.Affected, entity.Plural, action.Past)
	}
	return res
}

func selfVerb(action BulkAction) string {
	if action.Name == BulkActionForceDelete.Name {
		return "permanently delete"
	}
	return action.Name
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
