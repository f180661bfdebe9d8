package domain

import "github.com/samber/lo"

type mergeGroup[T any] struct {
	name string
	rows []T
}

// groupByName groups rows by key preserving the order in which each key was
// first seen.
func groupByName[T any](rows []T, key func(T) string) []*mergeGroup[T] {
	index := make(map[string]*mergeGroup[T], len(rows))
	groups := make([]*mergeGroup[T], 0, len(rows))
	for _, row := range rows {
		k := key(row)
		g, ok := index[k]
		if !ok {
			g = &mergeGroup[T]{name: k}
			index[k] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, row)
	}
	return groups
}

// MergeRoles folds same named role rows into one logical role each. The first
// row of a group supplies id and timestamps; permissions are the union of all
// rows, deduplicated by id.
func MergeRoles(rows []*Role) []*MergedRole {
	rows = lo.Filter(rows, func(r *Role, _ int) bool { return r != nil })
	groups := groupByName(rows, func(r *Role) string { return r.Name })

	merged := make([]*MergedRole, 0, len(groups))
	for _, g := range groups {
		first := g.rows[0]
		permissions := lo.FlatMap(g.rows, func(r *Role, _ int) []*Permission { return r.Permissions })
		permissions = lo.Filter(permissions, func(p *Permission, _ int) bool { return p != nil })

		merged = append(merged, &MergedRole{
			ID:          first.ID,
			Name:        g.name,
			Guards:      lo.Map(g.rows, func(r *Role, _ int) string { return r.Guard }),
			Permissions: lo.UniqBy(permissions, func(p *Permission) uint { return p.ID }),
			CreatedAt:   first.CreatedAt,
			UpdatedAt:   first.UpdatedAt,
		})
	}
	return merged
}

// MergePermissions is MergeRoles for permissions, folding their roles.
func MergePermissions(rows []*Permission) []*MergedPermission {
	rows = lo.Filter(rows, func(p *Permission, _ int) bool { return p != nil })
	groups := groupByName(rows, func(p *Permission) string { return p.Name })

	merged := make([]*MergedPermission, 0, len(groups))
	for _, g := range groups {
		first := g.rows[0]
		roles := lo.FlatMap(g.rows, func(p *Permission, _ int) []*Role { return p.Roles })
		roles = lo.Filter(roles, func(r *Role, _ int) bool { return r != nil })

		merged = append(merged, &MergedPermission{
			ID:        first.ID,
			Name:      g.name,
			Guards:    lo.Map(g.rows, func(p *Permission, _ int) string { return p.Guard }),
			Roles:     lo.UniqBy(roles, func(r *Role) uint { return r.ID }),
			CreatedAt: first.CreatedAt,
			UpdatedAt: first.UpdatedAt,
		})
	}
	return merged
}
