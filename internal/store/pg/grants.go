package pg

import (
	"context"

	"saha.org/internal/permission"
)

// GrantsForProfile returns the menu grants of a permission profile keyed by
// module link and menu component.
func (s *Store) GrantsForProfile(ctx context.Context, profileID int64) ([]permission.Grant, error) {
	rows, err := s.db.QueryContext(ctx, `
		select m.link, mn.component, ppm.active, ppm.read, ppm.write
		from permission_profile_menus ppm
		join menus mn on mn.id = ppm.menu_id
		join modules m on m.id = mn.module_id
		where ppm.permission_profile_id = $1
		order by m.link, mn.component
	`, profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []permission.Grant
	for rows.Next() {
		var g permission.Grant
		if err := rows.Scan(&g.Link, &g.View, &g.Active, &g.Read, &g.Write); err != nil {
			return nil, err
		}
		grants = append(grants, g)
	}
	return grants, rows.Err()
}
