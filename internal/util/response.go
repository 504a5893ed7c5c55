package util

type Envelope map[string]any

func Error(message string) Envelope {
	return Envelope{"error": message}
}

func Data(key string, value any) Envelope {
	return Envelope{key: value}
}

// Paginated wraps a list payload with the pagination block every list
// endpoint returns.
func Paginated(key string, value any, page, perPage int, total int64) Envelope {
	return Envelope{
		key: value,
		"pagination": Envelope{
			"page":     page,
			"per_page": perPage,
			"total":    total,
		},
	}
}
