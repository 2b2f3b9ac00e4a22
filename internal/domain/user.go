package domain

import "time"

// DefaultUserStatus is assigned to every new account.
const DefaultUserStatus = "I am new!"

// User is the domain model for feed members.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Status       string
	PostIDs      []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// OwnsPost reports whether postID is in the user's post references.
func (u *User) OwnsPost(postID string) bool {
	for _, id := range u.PostIDs {
		if id == postID {
			return true
		}
	}
	return false
}

// AddPost appends postID keeping the references a set.
func (u *User) AddPost(postID string) {
	if u.OwnsPost(postID) {
		return
	}
	u.PostIDs = append(u.PostIDs, postID)
}

// RemovePost drops postID from the references, preserving order.
func (u *User) RemovePost(postID string) {
	kept := u.PostIDs[:0]
	for _, id := range u.PostIDs {
		if id != postID {
			kept = append(kept, id)
		}
	}
	u.PostIDs = kept
}

// Author returns the minimal creator summary for the user.
func (u *User) Author() Author {
	return Author{ID: u.ID, Name: u.Name}
}
