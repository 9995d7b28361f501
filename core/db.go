package core

// DBOrdering is a parsed ordering directive applied to repository listings.
// Repositories whitelist the fields they accept.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}
