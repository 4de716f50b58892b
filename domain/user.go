package domain

// User is the directory record of a registered user.
// The chat core only ever reads the id and the online flag; the rest
// travels along for client display.
type User struct {
	ID           int64  `json:"userId"`
	Fullname     string `json:"fullname"`
	Email        string `json:"email"`
	PhoneNumber  string `json:"phoneNumber"`
	ProfileImage string `json:"profileImage"`
	IsOnline     bool   `json:"isOnline"`
}
