package visibility

import (
	"slices"

	"gorm.io/gorm"
)

// Scope is the set of user ids whose tasks, activities and profiles an actor
// may read. All means no restriction.
type Scope struct {
	All     bool
	UserIDs []string
}

func Everything() Scope {
	return Scope{All: true}
}

func Only(userIDs ...string) Scope {
	return Scope{UserIDs: userIDs}
}

func (s Scope) Includes(userID string) bool {
	return s.All || slices.Contains(s.UserIDs, userID)
}

// Without returns the scope minus one user. Removing from All is not
// representable and leaves the scope unchanged; callers exclude separately.
func (s Scope) Without(userID string) Scope {
	if s.All {
		return s
	}
	ids := make([]string, 0, len(s.UserIDs))
	for _, id := range s.UserIDs {
		if id != userID {
			ids = append(ids, id)
		}
	}
	return Scope{UserIDs: ids}
}

// Apply restricts a query to rows whose column is in scope.
func (s Scope) Apply(db *gorm.DB, column string) *gorm.DB {
	if s.All {
		return db
	}
	if len(s.UserIDs) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where(column+" IN ?", s.UserIDs)
}
