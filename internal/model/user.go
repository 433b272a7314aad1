package model

import "time"

// NotificationChannel 用户接收通知的渠道
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelAll   NotificationChannel = "all"
	ChannelNone  NotificationChannel = "none"
)

// ValidChannel 校验渠道取值
func ValidChannel(c NotificationChannel) bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelAll, ChannelNone:
		return true
	}
	return false
}

// User 用户模型
type User struct {
	BaseModel
	Email               string              `gorm:"type:varchar(128);not null;default:''" json:"email"`
	Phone               string              `gorm:"type:varchar(32);not null;default:''" json:"phone"`
	Name                string              `gorm:"type:varchar(64);not null;default:''" json:"name"`
	NotificationChannel NotificationChannel `gorm:"type:varchar(8);not null;default:'email'" json:"notification_channel"`
	Timezone            string              `gorm:"type:varchar(64);not null;default:'UTC'" json:"timezone"`
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}

// Location 解析用户时区，解析失败回退 UTC
func (u *User) Location() *time.Location {
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
