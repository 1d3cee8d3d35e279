package entity

// Models lists every persisted type in migration order.
func Models() []any {
	return []any{
		&User{},
		&Report{},
		&ReportImage{},
		&MapData{},
		&Module{},
		&Alert{},
	}
}

// Contains reports whether v is one of allowed.
func Contains(allowed []string, v string) bool {
	for _, a := range allowed {
		if a == v {
			return true
		}
	}
	return false
}
