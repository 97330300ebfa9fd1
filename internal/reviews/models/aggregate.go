package models

// Aggregate is the running rating total for one project, in hundredths of a
// star. It is maintained incrementally so the average never needs a scan of
// the review rows.
//
// Invariant: Sum equals the sum of RatingScale*rating over live reviews and
// Count equals their number.
type Aggregate struct {
	Sum   int64  `json:"sum"`
	Count uint64 `json:"count"`
}

// Add folds a new review's rating in.
func (a Aggregate) Add(rating int) Aggregate {
	return Aggregate{Sum: a.Sum + int64(rating)*RatingScale, Count: a.Count + 1}
}

// Replace swaps an updated review's rating without changing the count.
func (a Aggregate) Replace(oldRating, newRating int) Aggregate {
	return Aggregate{Sum: a.Sum + int64(newRating-oldRating)*RatingScale, Count: a.Count}
}

// Remove folds a deleted review's rating out.
func (a Aggregate) Remove(rating int) Aggregate {
	return Aggregate{Sum: a.Sum - int64(rating)*RatingScale, Count: a.Count - 1}
}

// Average returns the mean rating in hundredths of a star, truncated. Zero
// when no reviews exist; that is a value, not an error.
func (a Aggregate) Average() int64 {
	if a.Count == 0 {
		return 0
	}
	return a.Sum / int64(a.Count)
}
