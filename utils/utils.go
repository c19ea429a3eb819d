package utils

// Paginate converts 1-based page/limit values into an SQL offset, clamping
// to sane defaults.
func Paginate(page, limit int) (offset, clampedLimit int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return (page - 1) * limit, limit
}
