package entity

import (
	"time"
)

type Product struct {
	ID            string    `json:"id" firestore:"id"`
	Name          string    `json:"name" firestore:"name"`
	Price         float64   `json:"price" firestore:"price"`
	ImageURL      string    `json:"image_url" firestore:"imageUrl"`
	UserID        string    `json:"user_id" firestore:"userId"`
	Views         int       `json:"views" firestore:"views"`
	AverageRating float64   `json:"average_rating" firestore:"averageRating"`
	ReviewCount   int       `json:"review_count" firestore:"reviewCount"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time `json:"updated_at" firestore:"updatedAt"`
}

// OwnedBy reports whether userID is the listing's owner. An empty id never owns.
func (p *Product) OwnedBy(userID string) bool {
	return userID != "" && p.UserID == userID
}
