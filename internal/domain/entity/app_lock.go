package entity

import "time"

// AppLock guards the private area of the app for one user.
type AppLock struct {
	UserID           string    `json:"user_id" firestore:"userId"`
	PinHash          string    `json:"-" firestore:"pinHash"`
	BiometricEnabled bool      `json:"biometric_enabled" firestore:"biometricEnabled"`
	UpdatedAt        time.Time `json:"updated_at" firestore:"updatedAt"`
}
