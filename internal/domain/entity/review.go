package entity

import (
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is one identity's rating of one product. Its id is derived from the
// pair, see ReviewID.
type Review struct {
	ID        string    `json:"id" firestore:"id"`
	ProductID string    `json:"product_id" firestore:"productId"`
	UserID    string    `json:"user_id" firestore:"userId"`
	Rating    int       `json:"rating" firestore:"rating"`
	Comment   string    `json:"comment,omitempty" firestore:"comment"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

type ReviewWithAuthor struct {
	Review
	AuthorName string `json:"author_name"`
}

func ReviewID(productID, userID string) string {
	return productID + "_" + userID
}
