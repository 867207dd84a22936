package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Post represents a published post stored in MongoDB. Media references are
// opaque URL strings owned by the media collaborator.
type Post struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	AuthorID      uint               `json:"author_id" bson:"author_id"`
	Content       string             `json:"content" bson:"content"`
	Images        []string           `json:"images,omitempty" bson:"images,omitempty"`
	LikesCount    int                `json:"likes_count" bson:"likes_count"`
	CommentsCount int                `json:"comments_count" bson:"comments_count"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
}

// CreatePostRequest defines the request body for publishing a new post
type CreatePostRequest struct {
	Content string   `json:"content" validate:"required,min=1,max=2000"`
	Images  []string `json:"images,omitempty" validate:"omitempty,max=9,dive,required"`
}
