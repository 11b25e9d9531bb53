package roster

import (
	"sort"

	"github.com/kozaktomas/voice-attendance/internal/database"
)

// GroupKey identifies a class group. Presentation-only; groups are
// recomputed on demand and never stored.
type GroupKey struct {
	Year     string `json:"year"`
	Standard string `json:"standard"`
	Division string `json:"division"`
}

// Group is a set of students sharing a class group.
type Group struct {
	Key      GroupKey           `json:"key"`
	Students []database.Student `json:"students"`
}

// GroupStudents partitions students by (year, standard, division). Groups
// are ordered by key, students within a group by roll number then name.
func GroupStudents(students []database.Student) []Group {
	byKey := make(map[GroupKey][]database.Student)
	for _, s := range students {
		key := GroupKey{Year: s.Year, Standard: s.Standard, Division: s.Division}
		byKey[key] = append(byKey[key], s)
	}

	keys := make([]GroupKey, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.Year != b.Year {
			return a.Year < b.Year
		}
		if a.Standard != b.Standard {
			return a.Standard < b.Standard
		}
		return a.Division < b.Division
	})

	groups := make([]Group, 0, len(keys))
	for _, key := range keys {
		members := byKey[key]
		sort.Slice(members, func(i, j int) bool {
			if members[i].RollNo != members[j].RollNo {
				return members[i].RollNo < members[j].RollNo
			}
			return members[i].Name < members[j].Name
		})
		groups = append(groups, Group{Key: key, Students: members})
	}
	return groups
}
