package models

import (
	"time"

	"github.com/google/uuid"
)

// RatingType represents the kind of appreciation a rater gives an argument.
type RatingType string

const (
	RatingInsightful   RatingType = "insightful"
	RatingConcedePoint RatingType = "concede_point"
)

func (t RatingType) Valid() bool {
	return t == RatingInsightful || t == RatingConcedePoint
}

// Rating is unique per (argument, rater, type); raters never rate their own arguments.
type Rating struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	ArgumentID  uuid.UUID  `json:"argumentId" db:"argument_id"`
	RaterUserID uuid.UUID  `json:"raterUserId" db:"rater_user_id"`
	RatingType  RatingType `json:"ratingType" db:"rating_type"`
	CreatedAt   time.Time  `json:"createdAt" db:"created_at"`
}
