package domain

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
)

type SQLModel struct {
	ID        uint  `json:"id" gorm:"primaryKey;autoIncrement"`
	CreatedAt int64 `json:"created_at" gorm:"autoCreateTime:milli"`
	UpdatedAt int64 `json:"updated_at" gorm:"autoUpdateTime:milli"`
}

type FindOneOption struct {
	Preloads []string `json:"preloads" form:"preloads"`
	Sort     []string `json:"sort" form:"sort"`
}

type FindManyOption struct {
	Preloads []string `json:"preloads" form:"preloads"`
	Joins    []string `json:"joins" form:"joins"`
	Sort     []string `json:"sort" form:"sort"`
	Limit    *int     `json:"limit" form:"limit" default:"10"`
	Offset   *int     `json:"offset" form:"offset" default:"0"`
}

type FindPageOption struct {
	Preloads []string `json:"preloads" form:"preloads"`
	Sort     []string `json:"sort" form:"sort"`
	Page     int      `json:"page" form:"page" default:"1"`
	PerPage  int      `json:"per_page" form:"per_page" default:"10"`
}

// JSONB stores a string keyed map as a json column. Drivers hand back either
// []byte (postgres) or string (sqlite), both are accepted.
type JSONB map[string]string

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	val, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(val), nil
}

func (j *JSONB) Scan(input interface{}) error {
	switch v := input.(type) {
	case nil:
		*j = JSONB{}
		return nil
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("type assertion to []byte failed")
	}
}
