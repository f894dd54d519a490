package lox

// MapErr is lo.Map for iteratees that can fail. It stops at the first error.
func MapErr[T, R any](collection []T, iteratee func(item T) (R, error)) ([]R, error) {
	result := make([]R, 0, len(collection))

	for _, item := range collection {
		mapped, err := iteratee(item)
		if err != nil {
			return nil, err
		}

		result = append(result, mapped)
	}

	return result, nil
}
