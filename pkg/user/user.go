package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

type Stats struct {
	Posts         int `json:"posts"`
	Comments      int `json:"comments"`
	ReceivedLikes int `json:"received_likes"`
}

type Preferences struct {
	EmailNotifications bool   `json:"emailNotifications"`
	PushNotifications  bool   `json:"pushNotifications"`
	DigestFrequency    string `json:"digestFrequency"`
}

type User struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Password     []byte      `json:"-"`
	Avatar       string      `json:"avatar"`
	Bio          string      `json:"bio"`
	Reputation   int         `json:"reputation"`
	Role         Role        `json:"role"`
	JoinedAt     time.Time   `json:"joinedAt"`
	Following    []string    `json:"following"`
	Followers    []string    `json:"followers"`
	Badges       []string    `json:"badges"`
	Achievements []string    `json:"achievements"`
	Stats        Stats       `json:"stats"`
	Preferences  Preferences `json:"preferences"`
}

func (u *User) clone() *User {
	c := *u
	c.Password = append([]byte(nil), u.Password...)
	c.Following = append([]string(nil), u.Following...)
	c.Followers = append([]string(nil), u.Followers...)
	c.Badges = append([]string(nil), u.Badges...)
	c.Achievements = append([]string(nil), u.Achievements...)
	return &c
}
