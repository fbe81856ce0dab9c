package models

import "time"

// User is the persisted per-platform-user record: battle token balance,
// hosting cooldown and the wallet address linked through the verify flow.
type User struct {
	ID            string     `json:"id" db:"id"`
	Tokens        int        `json:"tokens" db:"tokens"`
	CooldownUntil *time.Time `json:"cooldown_until,omitempty" db:"cooldown_until"`
	WalletAddress *string    `json:"wallet_address,omitempty" db:"wallet_address"`
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
}

// UserPatch carries partial updates for a user record; nil fields are left
// untouched.
type UserPatch struct {
	Tokens        *int
	CooldownUntil *time.Time
	WalletAddress *string
}
